package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmoretti/sibyl/internal/contracts"
)

// FetchQuote scrapes the provider's quote page for a symbol's current
// price. Each sync cross-checks the stored daily series against it,
// since the daily CSV endpoint lags the live quote by up to a day.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("s", strings.ToLower(symbol))

	fullURL := fmt.Sprintf("%s?%s", c.config.QuoteURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL, map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse quote page for %s: %w", symbol, err)
	}

	quote, err := parseQuoteDocument(symbol, doc)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"price":  quote.Price,
	}).Debug("fetched quote")

	return quote, nil
}

// parseQuoteDocument extracts the live price and percent change from a
// quote page. The page embeds values in spans whose ids are prefixed
// with "aq_<symbol>_": "_c" carries the last price and "_m2" the
// percent change.
func parseQuoteDocument(symbol string, doc *goquery.Document) (*Quote, error) {
	idPrefix := "aq_" + strings.ToLower(symbol) + "_"

	quote := &Quote{
		Symbol:    symbol,
		FetchedAt: time.Now().UTC(),
	}

	priceText := doc.Find("span[id='" + idPrefix + "c']").First().Text()
	price, err := parseQuoteNumber(priceText)
	if err != nil {
		return nil, contracts.NewDataError(symbol, "quote page has no parseable price: %v", err)
	}
	quote.Price = price

	if changeText := doc.Find("span[id='" + idPrefix + "m2']").First().Text(); changeText != "" {
		if change, err := parseQuoteNumber(changeText); err == nil {
			quote.Change = change
		}
	}

	if dateText := doc.Find("span[id='" + idPrefix + "d2']").First().Text(); dateText != "" {
		if date, err := time.Parse("2006-01-02", strings.TrimSpace(dateText)); err == nil {
			quote.Date = date
		}
	}

	return quote, nil
}

// staleAfterDays is the largest gap between the last stored daily bar
// and the quote page's date that still counts as fresh. Four calendar
// days absorbs a weekend plus one holiday.
const staleAfterDays = 4

// SeriesStale reports whether a stored daily series lags the live
// quote. A quote without a parseable date cannot prove staleness.
func SeriesStale(lastStored time.Time, quote *Quote) bool {
	if quote == nil || quote.Date.IsZero() {
		return false
	}
	return quote.Date.Sub(lastStored) > staleAfterDays*24*time.Hour
}

// parseQuoteNumber strips formatting noise from a scraped value, such
// as thousands separators and a trailing percent sign.
func parseQuoteNumber(text string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.TrimPrefix(cleaned, "+")
	if cleaned == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(cleaned, 64)
}
