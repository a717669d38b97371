package taifex

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/internal/external/csvutil"
	"github.com/wonny/twstock/pkg/httputil"
	"github.com/wonny/twstock/pkg/logger"
)

// Client scrapes the Taiwan Futures Exchange stock futures list
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a TAIFEX client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("taifex"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchMappings returns one row per listed stock futures contract
func (c *Client) FetchMappings(ctx context.Context) ([]contracts.RawMapping, error) {
	url := c.baseURL + "/cht/2/stockLists"

	body, err := c.httpClient.GetBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("taifex stock lists: %w", err)
	}

	rows, err := parseStockLists(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(rows)).Debug("Fetched stock futures list")
	return rows, nil
}

// parseStockLists reads table rows of at least 11 cells:
// contract prefix (0), underlying id (2) and contract multiplier (10).
func parseStockLists(body []byte) ([]contracts.RawMapping, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse stock lists: %w", err)
	}

	var out []contracts.RawMapping
	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 11 {
			return
		}

		prefix := strings.TrimSpace(cells.Eq(0).Text())
		symbol := strings.TrimSpace(cells.Eq(2).Text())
		if prefix == "" || !csvutil.IsSecurityID(symbol) {
			return
		}

		out = append(out, contracts.RawMapping{
			Contract:   prefix + "F",
			Symbol:     symbol,
			Multiplier: csvutil.Clean(cells.Eq(10).Text()),
		})
	})
	return out, nil
}
