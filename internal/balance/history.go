package balance

import (
	"sort"
	"time"

	"circle/internal/models"
)

// DefaultGap is the sampling interval of the asset history.
const DefaultGap = 15 * 24 * time.Hour

// Point is one sample of the asset history.
type Point struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
	Value int64     `json:"value"`
}

// History samples the cleared net assets of accounts every gap, starting at
// the earliest transaction and ending at the first sample on or after the
// latest one. Each point includes every cleared row dated on or before it.
// Amounts are summed in their native minor units.
func History(accounts []models.Account, txs []models.Transaction, gap time.Duration) []Point {
	if len(txs) == 0 {
		return nil
	}
	if gap <= 0 {
		gap = DefaultGap
	}

	byID := make(map[string]models.Account, len(accounts))
	var value int64
	for _, a := range accounts {
		byID[a.ID] = a
		value += a.Balance
	}

	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var points []Point
	i := 0
	last := sorted[len(sorted)-1].Date
	for at := sorted[0].Date; ; at = at.Add(gap) {
		for i < len(sorted) && !sorted[i].Date.After(at) {
			tx := sorted[i]
			if account, ok := byID[tx.AccountID]; ok && tx.Status == models.TransactionStatusCleared {
				value += Impact(account, tx.Type, tx.Amount)
			}
			i++
		}
		points = append(points, Point{Date: at, Label: at.Local().Format("2006-01-02"), Value: value})
		if !at.Before(last) {
			break
		}
	}
	return points
}
