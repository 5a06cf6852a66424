package gecko

import (
	"strings"
	"time"

	"github.com/rickgao/price-feed/internal/model"
)

// ToMarketRecord converts an API market to the domain model.
func (m *APIMarket) ToMarketRecord() model.MarketRecord {
	return model.MarketRecord{
		ID:                           m.ID,
		Symbol:                       m.Symbol,
		Name:                         m.Name,
		Image:                        m.Image,
		CurrentPrice:                 m.CurrentPrice,
		MarketCap:                    m.MarketCap,
		MarketCapRank:                m.MarketCapRank,
		FullyDilutedValuation:        m.FullyDilutedValuation,
		TotalVolume:                  m.TotalVolume,
		High24h:                      m.High24h,
		Low24h:                       m.Low24h,
		PriceChange24h:               m.PriceChange24h,
		PriceChangePercentage24h:     m.PriceChangePercentage24h,
		MarketCapChange24h:           m.MarketCapChange24h,
		MarketCapChangePercentage24h: m.MarketCapChangePercentage24h,
		CirculatingSupply:            m.CirculatingSupply,
		TotalSupply:                  m.TotalSupply,
		MaxSupply:                    m.MaxSupply,
		ATH:                          m.ATH,
		ATHChangePercentage:          m.ATHChangePercentage,
		ATHDate:                      ParseTimestamp(m.ATHDate),
		ATL:                          m.ATL,
		ATLChangePercentage:          m.ATLChangePercentage,
		ATLDate:                      ParseTimestamp(m.ATLDate),
		LastUpdated:                  ParseTimestamp(m.LastUpdated),
	}
}

// ParseTimestamp parses an ISO 8601 timestamp into UTC.
// Returns nil for nil, empty or invalid input.
func ParseTimestamp(iso *string) *time.Time {
	if iso == nil {
		return nil
	}
	s := strings.TrimSpace(*iso)
	if s == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05", s)
		if err != nil {
			return nil
		}
	}

	t = t.UTC()
	return &t
}
