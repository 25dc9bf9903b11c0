package models

import (
	"encoding/json"
	"fmt"

	"github.com/michischmidt/crypto-tracker/pkg/fault"
)

// PricePoint is the canonical cached shape of one market series sample.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	Date      string  `json:"date"` // UTC ISO-8601
}

// MarketChart is the provider's market_chart response.
type MarketChart struct {
	Prices [][]float64 `json:"prices"`
}

// UnmarshalJSON rejects null samples and null values inside a sample, which
// plain float64 decoding would turn into zeros.
func (m *MarketChart) UnmarshalJSON(b []byte) error {
	var raw struct {
		Prices [][]*float64 `json:"prices"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Prices == nil {
		m.Prices = nil
		return nil
	}
	prices := make([][]float64, len(raw.Prices))
	for i, pair := range raw.Prices {
		if pair == nil {
			return fmt.Errorf("prices[%d]: null sample", i)
		}
		prices[i] = make([]float64, len(pair))
		for j, v := range pair {
			if v == nil {
				return fmt.Errorf("prices[%d][%d]: null value", i, j)
			}
			prices[i][j] = *v
		}
	}
	m.Prices = prices
	return nil
}

// TimePeriod identifies a chart range. Values are part of persisted cache
// keys and must stay stable.
type TimePeriod string

const (
	PeriodWeek  TimePeriod = "1W"
	PeriodMonth TimePeriod = "1M"
	PeriodYear  TimePeriod = "1Y"
)

// Periods lists every supported period in display order.
var Periods = []TimePeriod{PeriodWeek, PeriodMonth, PeriodYear}

// Days returns the number of days of history the period covers.
func (p TimePeriod) Days() int {
	switch p {
	case PeriodMonth:
		return 30
	case PeriodYear:
		return 365
	default:
		return 7
	}
}

// Valid reports whether p is one of the supported periods.
func (p TimePeriod) Valid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// ParsePeriod converts a user-supplied string into a TimePeriod.
func ParsePeriod(s string) (TimePeriod, error) {
	p := TimePeriod(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", fault.ErrUnknownPeriod, s)
	}
	return p, nil
}
