package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmoretti/sibyl/internal/contracts"
)

const csvDateLayout = "2006-01-02"

// FetchDailyPrices fetches daily OHLCV history for a symbol. All daily
// history downloads go through this function.
func (c *Client) FetchDailyPrices(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	params := url.Values{}
	params.Set("s", strings.ToLower(symbol))
	params.Set("i", "d")
	params.Set("d1", from.Format("20060102"))
	params.Set("d2", to.Format("20060102"))

	fullURL := fmt.Sprintf("%s?%s", c.config.BaseURL, params.Encode())

	body, err := c.httpClient.GetBody(ctx, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch daily prices for %s: %w", symbol, err)
	}

	points, err := parseDailyCSV(string(body))
	if err != nil {
		return nil, contracts.NewDataError(symbol, "parse daily prices: %v", err)
	}
	if len(points) == 0 {
		return nil, contracts.NewDataError(symbol, "provider returned no price rows")
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(points),
		"from":   from.Format(csvDateLayout),
		"to":     to.Format(csvDateLayout),
	}).Debug("fetched daily prices")

	return points, nil
}

// parseDailyCSV parses the provider's CSV download format:
//
//	Date,Open,High,Low,Close,Volume
//	2025-01-02,100.5,102.0,99.8,101.2,1500000
//
// Index series omit the Volume column; those rows get volume 0.
// Unparseable rows are skipped rather than failing the download.
func parseDailyCSV(body string) ([]contracts.PricePoint, error) {
	body = strings.TrimSpace(body)
	if body == "" || strings.HasPrefix(strings.ToLower(body), "no data") {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 5 || !strings.EqualFold(strings.TrimSpace(header[0]), "date") {
		return nil, fmt.Errorf("unexpected header: %q", strings.Join(header, ","))
	}

	var points []contracts.PricePoint
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) < 5 {
			continue
		}

		date, err := time.Parse(csvDateLayout, strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}

		open, err1 := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		high, err2 := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		low, err3 := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		closePrice, err4 := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		var volume int64
		if len(row) >= 6 {
			volume, _ = strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
		}

		points = append(points, contracts.PricePoint{
			Date:     date,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			AdjClose: closePrice,
			Volume:   volume,
		})
	}

	return points, nil
}
