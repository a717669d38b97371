package contracts

import (
	"testing"
	"time"
)

func TestNormalizeMarket(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"TWSE", MarketTWSE},
		{"twse", MarketTWSE},
		{"OTC", MarketOTC},
		{"tpex", MarketOTC},
		{" TPEX ", MarketOTC},
		{"NYSE", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeMarket(tt.input); got != tt.want {
				t.Errorf("NormalizeMarket(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWatermarkString(t *testing.T) {
	if got := (Watermark{}).String(); got != "empty" {
		t.Errorf("Expected empty, got %s", got)
	}

	wm := NewWatermark(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	if got := wm.String(); got != "2024-01-02..2024-01-05" {
		t.Errorf("unexpected watermark string %s", got)
	}
}

func TestStages(t *testing.T) {
	stages := AllStages()
	if len(stages) != 4 || stages[0] != StageRegistry || stages[1] != StageQuotes {
		t.Errorf("unexpected stage order %v", stages)
	}

	if !IsValidStage("QUOTES") {
		t.Error("Expected QUOTES to be valid")
	}
	if IsValidStage("S0_DATA_QUALITY") {
		t.Error("Expected unknown stage to be invalid")
	}

	if StageFutures.Description() != "stock futures mapping" {
		t.Errorf("unexpected description %s", StageFutures.Description())
	}
}
