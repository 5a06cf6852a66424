package gecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rickgao/price-feed/internal/failure"
	"github.com/rickgao/price-feed/internal/model"
)

// PageSize is the number of records requested per page (provider maximum).
const PageSize = 250

const marketsPath = "/coins/markets"

// MarketsQuery builds the /coins/markets query for one page.
func MarketsQuery(currency Currency, page int) url.Values {
	query := url.Values{}
	query.Set("vs_currency", currency.String())
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(PageSize))
	query.Set("page", strconv.Itoa(page))
	query.Set("sparkline", "false")
	return query
}

// FetchPage fetches one page of market records for a currency.
//
// The currency and page are validated before any network call. The returned
// page keeps null elements as absent entries, in provider order. A body that is
// not an array, or any non-null element that does not match the record schema,
// fails the whole page as a failure.Schema error.
func (c *Client) FetchPage(ctx context.Context, currency string, page int) (model.Page, error) {
	cur, err := ParseCurrency(currency)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, failure.Newf(failure.Validation, "fetch page", "page must be >= 1, got %d", page)
	}

	body, err := c.Fetch(ctx, marketsPath, MarketsQuery(cur, page))
	if err != nil {
		return nil, err
	}

	result, err := c.decodePage(body)
	if err != nil {
		c.logger.Debug("rejecting market page",
			"page", page,
			"bytes", len(body),
			"err", err,
		)
		return nil, failure.New(failure.Schema, fmt.Sprintf("decode page %d", page), err)
	}
	return result, nil
}

// decodePage decodes a JSON array of nullable market objects. Null elements
// become absent entries; any other element must decode as a market record.
func (c *Client) decodePage(body []byte) (model.Page, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if raw == nil {
		// Top-level null is not an array.
		return nil, fmt.Errorf("unmarshal response: expected array, got null")
	}

	page := make(model.Page, 0, len(raw))
	for i, elem := range raw {
		var m *APIMarket
		if err := json.Unmarshal(elem, &m); err != nil {
			return nil, fmt.Errorf("unmarshal element %d: %w", i, err)
		}
		if m == nil {
			page = append(page, model.Absent())
			continue
		}
		page = append(page, model.Present(m.ToMarketRecord()))
	}

	return page, nil
}
