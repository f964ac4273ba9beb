package shaping

import (
	"math"
	"sort"

	"MarketDash/internal/domain/models"
)

// CombineMovers concatenates gainers then losers, keeps the first record seen
// for each symbol and orders the result by absolute percent change, largest first.
func CombineMovers(gainers, losers []models.MoverRecord) []models.MoverRecord {
	seen := make(map[string]struct{}, len(gainers)+len(losers))
	out := make([]models.MoverRecord, 0, len(gainers)+len(losers))
	for _, list := range [][]models.MoverRecord{gainers, losers} {
		for _, m := range list {
			if _, dup := seen[m.Symbol]; dup {
				continue
			}
			seen[m.Symbol] = struct{}{}
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].PercentChange) > math.Abs(out[j].PercentChange)
	})
	return out
}

// TopByVolume returns up to n records ordered by volume, highest first.
func TopByVolume(records []models.MoverRecord, n int) []models.MoverRecord {
	out := append([]models.MoverRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume > out[j].Volume })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SelectHeadline picks the most-active stock: highest volume, or the highest
// percent gain when no record carries volume.
func SelectHeadline(records []models.MoverRecord) (models.MoverRecord, bool) {
	if len(records) == 0 {
		return models.MoverRecord{}, false
	}
	best := records[0]
	anyVolume := false
	for _, r := range records {
		if r.Volume > 0 {
			anyVolume = true
			break
		}
	}
	for _, r := range records[1:] {
		if anyVolume {
			if r.Volume > best.Volume {
				best = r
			}
		} else if r.PercentChange > best.PercentChange {
			best = r
		}
	}
	return best, true
}

// QuotesToMovers adapts live quotes to mover records.
func QuotesToMovers(quotes []models.Quote) []models.MoverRecord {
	out := make([]models.MoverRecord, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, models.MoverRecord{
			Symbol:          q.Symbol,
			Name:            q.Name,
			Sector:          q.Sector,
			LastTradedPrice: q.LTP,
			Change:          q.Change,
			PercentChange:   q.ChangePct,
			Open:            q.Open,
			High:            q.High,
			Low:             q.Low,
			Volume:          q.Volume,
			Source:          q.Source,
		})
	}
	return out
}

// MoverRows decorates records with display name, heat bucket and sector tone.
func MoverRows(records []models.MoverRecord) []models.MoverRow {
	rows := make([]models.MoverRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, models.MoverRow{
			MoverRecord: r,
			DisplayName: r.DisplayName(),
			Heat:        Classify(r.PercentChange),
			SectorTone:  SectorToneFor(r.Sector),
			PctLabel:    FormatPercent(r.PercentChange),
			PriceLabel:  FormatPrice(r.LastTradedPrice),
			VolumeLabel: FormatVolume(r.Volume),
		})
	}
	return rows
}
