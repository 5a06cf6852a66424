package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// -----------------------------------------------------------------------------
// Market Data
// -----------------------------------------------------------------------------

// MarketRecord is one asset's snapshot at one poll.
type MarketRecord struct {
	ID     *string `json:"id"`     // Primary key (e.g., "bitcoin")
	Symbol *string `json:"symbol"` // Ticker symbol (e.g., "btc")
	Name   *string `json:"name"`   // Display name
	Image  *string `json:"image"`  // Image URL

	CurrentPrice          *float64 `json:"current_price"`
	MarketCap             *float64 `json:"market_cap"`
	MarketCapRank         *int32   `json:"market_cap_rank"`
	FullyDilutedValuation *float64 `json:"fully_diluted_valuation"`

	// 24h window
	TotalVolume                  *float64 `json:"total_volume"`
	High24h                      *float64 `json:"high_24h"`
	Low24h                       *float64 `json:"low_24h"`
	PriceChange24h               *float64 `json:"price_change_24h"`
	PriceChangePercentage24h     *float64 `json:"price_change_percentage_24h"`
	MarketCapChange24h           *float64 `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h *float64 `json:"market_cap_change_percentage_24h"`

	// Supply
	CirculatingSupply *float64 `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
	MaxSupply         *float64 `json:"max_supply"`

	// All-time high / low
	ATH                 *float64   `json:"ath"`
	ATHChangePercentage *float64   `json:"ath_change_percentage"`
	ATHDate             *time.Time `json:"ath_date"`
	ATL                 *float64   `json:"atl"`
	ATLChangePercentage *float64   `json:"atl_change_percentage"`
	ATLDate             *time.Time `json:"atl_date"`

	LastUpdated *time.Time `json:"last_updated"`
}

// Key returns the record's identifier and whether it can be stored.
// Records without a non-empty id cannot be upserted.
func (r MarketRecord) Key() (string, bool) {
	if r.ID == nil || *r.ID == "" {
		return "", false
	}
	return *r.ID, true
}

// -----------------------------------------------------------------------------
// Pages
// -----------------------------------------------------------------------------

// Entry is one slot of a page: either a present record or an absent one
// (the provider sent null, or the element could not be decoded).
type Entry struct {
	record *MarketRecord
}

// Present wraps a record.
func Present(r MarketRecord) Entry {
	return Entry{record: &r}
}

// Absent returns an empty slot.
func Absent() Entry {
	return Entry{}
}

// Get returns the record and true if the entry is present.
func (e Entry) Get() (MarketRecord, bool) {
	if e.record == nil {
		return MarketRecord{}, false
	}
	return *e.record, true
}

// IsPresent reports whether the entry holds a record.
func (e Entry) IsPresent() bool {
	return e.record != nil
}

// MarshalJSON encodes an absent entry as null.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.record == nil {
		return []byte("null"), nil
	}
	return json.Marshal(e.record)
}

// UnmarshalJSON decodes null as absent.
func (e *Entry) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		e.record = nil
		return nil
	}
	var r MarketRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	e.record = &r
	return nil
}

// Page is the ordered result of one (currency, page index) request.
// An empty page means there is no more data for the currency.
type Page []Entry

// Empty reports whether the page has no entries at all.
func (p Page) Empty() bool {
	return len(p) == 0
}

// PresentCount returns the number of present entries.
func (p Page) PresentCount() int {
	n := 0
	for _, e := range p {
		if e.IsPresent() {
			n++
		}
	}
	return n
}

// -----------------------------------------------------------------------------
// Outcomes
// -----------------------------------------------------------------------------

// Outcome classifies one ingestion iteration and drives the worker's pacing.
type Outcome int

const (
	Completed  Outcome = iota // Page stored, cursor advances
	EmptyQueue                // Provider returned no entries
	Errored                   // Fetch or commit failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case EmptyQueue:
		return "empty_queue"
	case Errored:
		return "error"
	default:
		return "unknown"
	}
}
