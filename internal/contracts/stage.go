package contracts

// Sync Stage 정의 (SSOT)
// 모든 로그, 요약, 스케줄 잡에서 이 상수를 사용해야 함
//
// 업데이트 흐름:
//   REGISTRY → QUOTES → INDEX, FUTURES는 독립 실행 가능

// Stage represents one synchronization stage
type Stage string

const (
	// StageRegistry discovers listed securities and reconciles the stock table
	// 위치: internal/syncer/registry.go
	StageRegistry Stage = "REGISTRY"

	// StageQuotes brings every symbol's daily quotes up to the horizon
	// 위치: internal/syncer/quotes.go
	StageQuotes Stage = "QUOTES"

	// StageIndex brings the TAIEX series up to the horizon
	// 위치: internal/syncer/index.go
	StageIndex Stage = "INDEX"

	// StageFutures replaces the stock futures mapping table
	// 위치: internal/syncer/futures.go
	StageFutures Stage = "FUTURES"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageRegistry:
		return "symbol registry"
	case StageQuotes:
		return "daily quotes"
	case StageIndex:
		return "TAIEX index"
	case StageFutures:
		return "stock futures mapping"
	default:
		return "unknown"
	}
}

// AllStages returns all stages in update order
func AllStages() []Stage {
	return []Stage{
		StageRegistry,
		StageQuotes,
		StageIndex,
		StageFutures,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
