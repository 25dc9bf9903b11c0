package models

// Coin is the canonical cached shape of a symbol list entry.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
}

// CoinMarket is a row of the provider's markets listing. Only the fields
// needed for Coin are required; the rest are informational.
type CoinMarket struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
}
