package coingecko

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/michischmidt/crypto-tracker/pkg/fault"
	"github.com/michischmidt/crypto-tracker/pkg/models"
)

// isoMillis matches JavaScript's Date.toISOString output.
const isoMillis = "2006-01-02T15:04:05.000Z"

// maxTimestamp bounds sample timestamps to the JavaScript Date range in ms.
const maxTimestamp = 8.64e15

// ToCoins keeps the identifying fields of each market row and upper-cases
// the ticker symbol.
func ToCoins(rows []models.CoinMarket) ([]models.Coin, error) {
	coins := make([]models.Coin, 0, len(rows))
	for i, r := range rows {
		if r.ID == "" || r.Symbol == "" || r.Name == "" {
			return nil, &fault.ParseError{
				Source: "coins/markets",
				Err:    fmt.Errorf("row %d: id, symbol and name are required", i),
			}
		}
		coins = append(coins, models.Coin{
			ID:     r.ID,
			Symbol: strings.ToUpper(r.Symbol),
			Name:   r.Name,
			Image:  r.Image,
		})
	}
	return coins, nil
}

// ToPricePoints converts [timestamp, price] pairs into price points.
func ToPricePoints(chart *models.MarketChart) ([]models.PricePoint, error) {
	points := make([]models.PricePoint, 0, len(chart.Prices))
	for i, pair := range chart.Prices {
		if len(pair) != 2 {
			return nil, parseErr("pair %d has %d elements", i, len(pair))
		}
		ts, price := pair[0], pair[1]
		if ts != math.Trunc(ts) || math.Abs(ts) > maxTimestamp {
			return nil, parseErr("pair %d: invalid timestamp %v", i, ts)
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, parseErr("pair %d: invalid sample [%v, %v]", i, ts, price)
		}
		ms := int64(ts)
		points = append(points, models.PricePoint{
			Timestamp: ms,
			Price:     price,
			Date:      time.UnixMilli(ms).UTC().Format(isoMillis),
		})
	}
	return points, nil
}

func parseErr(format string, args ...any) error {
	return &fault.ParseError{Source: "market_chart", Err: fmt.Errorf(format, args...)}
}
