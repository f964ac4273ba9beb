package shaping

import (
	"encoding/json"
	"testing"

	"MarketDash/internal/domain/models"
)

func pt(date string, price float64) models.TimeSeriesPoint {
	return models.TimeSeriesPoint{Date: date, Price: models.Float(price)}
}

func band(date string, price, lo, hi float64) models.TimeSeriesPoint {
	return models.TimeSeriesPoint{Date: date, Price: models.Float(price), Lower: models.Float(lo), Upper: models.Float(hi)}
}

func TestMergeHistoryAndForecast(t *testing.T) {
	rows := Merge(
		SeriesInput{Key: SeriesHistory, Points: []models.TimeSeriesPoint{pt("2024-01-01", 100)}},
		SeriesInput{Key: SeriesARIMA, Points: []models.TimeSeriesPoint{band("2024-01-02", 101, 99, 103)}},
	)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Date != "2024-01-01" || rows[1].Date != "2024-01-02" {
		t.Fatalf("unexpected order %q %q", rows[0].Date, rows[1].Date)
	}
	if v, ok := rows[0].Get("h"); !ok || v != 100 {
		t.Fatalf("row 0 h = %v %v", v, ok)
	}
	if len(rows[0].Values) != 1 {
		t.Fatalf("row 0 should only carry h, got %v", rows[0].Values)
	}
	want := map[string]float64{"a": 101, "a_lo": 99, "a_hi": 103}
	if len(rows[1].Values) != len(want) {
		t.Fatalf("row 1 fields %v", rows[1].Values)
	}
	for k, v := range want {
		if got, ok := rows[1].Get(k); !ok || got != v {
			t.Fatalf("row 1 %s = %v %v", k, got, ok)
		}
	}
	if rows[1].Has("h") {
		t.Fatalf("row 1 must not carry history")
	}
}

func TestMergeSameDateSharesRow(t *testing.T) {
	rows := Merge(
		SeriesInput{Key: SeriesHistory, Points: []models.TimeSeriesPoint{pt("2024-03-01", 10)}},
		SeriesInput{Key: SeriesARIMA, Points: []models.TimeSeriesPoint{band("2024-03-01", 11, 9, 12)}},
		SeriesInput{Key: SeriesGARCH, Points: []models.TimeSeriesPoint{band("2024-03-01", 10.5, 8, 13)}},
	)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	for _, f := range []string{"h", "a", "a_lo", "a_hi", "g", "g_lo", "g_hi"} {
		if !rows[0].Has(f) {
			t.Fatalf("missing %s", f)
		}
	}
}

func TestMergeAbsentNeverClobbers(t *testing.T) {
	rows := Merge(SeriesInput{Key: SeriesSARIMA, Points: []models.TimeSeriesPoint{
		band("2024-01-05", 50, 45, 55),
		{Date: "2024-01-05", Lower: models.Float(44)},
	}})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if v, _ := rows[0].Get("s"); v != 50 {
		t.Fatalf("price clobbered: %v", v)
	}
	if v, _ := rows[0].Get("s_lo"); v != 44 {
		t.Fatalf("later lower should win: %v", v)
	}
	if v, _ := rows[0].Get("s_hi"); v != 55 {
		t.Fatalf("upper clobbered: %v", v)
	}
}

func TestMergeDisjointDatesOrderIndependent(t *testing.T) {
	hist := SeriesInput{Key: SeriesHistory, Points: []models.TimeSeriesPoint{pt("2024-01-03", 3), pt("2024-01-01", 1)}}
	arima := SeriesInput{Key: SeriesARIMA, Points: []models.TimeSeriesPoint{band("2024-01-04", 4, 3, 5), band("2024-01-02", 2, 1, 3)}}

	a := Merge(hist, arima)
	b := Merge(arima, hist)
	if len(a) != 4 || len(b) != 4 {
		t.Fatalf("expected 4 rows, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Date != b[i].Date {
			t.Fatalf("row %d differs: %q vs %q", i, a[i].Date, b[i].Date)
		}
		if len(a[i].Values) != len(b[i].Values) {
			t.Fatalf("row %d fields differ", i)
		}
	}
	want := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}
	for i, d := range want {
		if a[i].Date != d {
			t.Fatalf("row %d = %q, want %q", i, a[i].Date, d)
		}
	}
}

func TestMergeHistoryDropsBounds(t *testing.T) {
	rows := Merge(SeriesInput{Key: SeriesHistory, Points: []models.TimeSeriesPoint{band("2024-01-01", 1, 0, 2)}})
	if len(rows[0].Values) != 1 || !rows[0].Has("h") {
		t.Fatalf("history must only set h, got %v", rows[0].Values)
	}
}

func TestMergeUnparseableDatesSortLast(t *testing.T) {
	rows := Merge(SeriesInput{Key: SeriesHistory, Points: []models.TimeSeriesPoint{
		pt("not-a-date", 1),
		pt("2024-02-01", 2),
		pt("", 3),
		pt("2024-01-01", 4),
	}})
	got := []string{rows[0].Date, rows[1].Date, rows[2].Date, rows[3].Date}
	want := []string{"2024-01-01", "2024-02-01", "not-a-date", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestMergeEmpty(t *testing.T) {
	if rows := Merge(); len(rows) != 0 {
		t.Fatalf("expected no rows")
	}
	if rows := Merge(SeriesInput{Key: SeriesGARCH}); len(rows) != 0 {
		t.Fatalf("expected no rows")
	}
}

func TestMergedRowJSON(t *testing.T) {
	rows := Merge(SeriesInput{Key: SeriesARIMA, Points: []models.TimeSeriesPoint{band("2024-01-02", 101, 99, 103)}})
	b, err := json.Marshal(rows[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"date":"2024-01-02","a":101,"a_hi":103,"a_lo":99}`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}
