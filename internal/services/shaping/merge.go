// Package shaping turns upstream market payloads into chart and table rows.
package shaping

import (
	"sort"
	"time"

	"MarketDash/internal/domain/models"
	"MarketDash/pkg/util"
)

// SeriesKey names one series taking part in a forecast chart.
type SeriesKey string

const (
	SeriesHistory SeriesKey = "history"
	SeriesARIMA   SeriesKey = "arima"
	SeriesSARIMA  SeriesKey = "sarima"
	SeriesGARCH   SeriesKey = "garch"
)

// AllSeries is the fixed visit order used when merging.
var AllSeries = []SeriesKey{SeriesHistory, SeriesARIMA, SeriesSARIMA, SeriesGARCH}

type fieldSet struct {
	price, lower, upper string
}

var seriesFields = map[SeriesKey]fieldSet{
	SeriesHistory: {price: "h"},
	SeriesARIMA:   {price: "a", lower: "a_lo", upper: "a_hi"},
	SeriesSARIMA:  {price: "s", lower: "s_lo", upper: "s_hi"},
	SeriesGARCH:   {price: "g", lower: "g_lo", upper: "g_hi"},
}

// Fields returns the row field names for a series. An empty name means the
// series never carries that value.
func Fields(key SeriesKey) (price, lower, upper string) {
	if f, ok := seriesFields[key]; ok {
		return f.price, f.lower, f.upper
	}
	k := string(key)
	return k, k + "_lo", k + "_hi"
}

// ParseSeriesKey maps a model name onto a known series.
func ParseSeriesKey(s string) (SeriesKey, bool) {
	k := SeriesKey(s)
	_, ok := seriesFields[k]
	return k, ok
}

// SeriesInput is one named series handed to Merge.
type SeriesInput struct {
	Key    SeriesKey
	Points []models.TimeSeriesPoint
}

// Merge combines several dated series into one row per distinct date.
//
// Present values are written under the series' own field names; absent values
// never clear a field. When a series repeats a date the later value wins for
// that field only. Rows are ordered by parsed date with ties kept in encounter
// order. Dates that cannot be parsed sort after every parseable date.
func Merge(series ...SeriesInput) []models.MergedRow {
	index := make(map[string]int)
	rows := make([]models.MergedRow, 0)

	for _, s := range series {
		price, lower, upper := Fields(s.Key)
		for _, p := range s.Points {
			i, ok := index[p.Date]
			if !ok {
				i = len(rows)
				index[p.Date] = i
				rows = append(rows, models.MergedRow{Date: p.Date, Values: make(map[string]float64, 3)})
			}
			setField(rows[i].Values, price, p.Price)
			setField(rows[i].Values, lower, p.Lower)
			setField(rows[i].Values, upper, p.Upper)
		}
	}

	sortRows(rows)
	return rows
}

func setField(values map[string]float64, name string, v *float64) {
	if name == "" || v == nil {
		return
	}
	values[name] = *v
}

type datedRow struct {
	row    models.MergedRow
	at     time.Time
	parsed bool
}

func sortRows(rows []models.MergedRow) {
	keyed := make([]datedRow, len(rows))
	for i, r := range rows {
		t, ok := util.ParseDate(r.Date)
		keyed[i] = datedRow{row: r, at: t, parsed: ok}
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		a, b := keyed[i], keyed[j]
		if a.parsed != b.parsed {
			return a.parsed
		}
		if !a.parsed {
			return false
		}
		return a.at.Before(b.at)
	})
	for i := range keyed {
		rows[i] = keyed[i].row
	}
}
