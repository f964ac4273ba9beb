package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// TimeSeriesPoint is one dated observation. Any of the numeric fields may be absent.
type TimeSeriesPoint struct {
	Date  string   `json:"date"`
	Price *float64 `json:"price,omitempty"`
	Lower *float64 `json:"lower,omitempty"`
	Upper *float64 `json:"upper,omitempty"`
}

// Float returns a pointer to v, for building points in code.
func Float(v float64) *float64 { return &v }

// MergedRow is one chart row: a date plus the namespaced fields present for it.
type MergedRow struct {
	Date   string
	Values map[string]float64
}

// Get returns the value stored under field and whether it is present.
func (r MergedRow) Get(field string) (float64, bool) {
	v, ok := r.Values[field]
	return v, ok
}

// Has reports whether field is present on the row.
func (r MergedRow) Has(field string) bool {
	_, ok := r.Values[field]
	return ok
}

// MarshalJSON flattens the row into {"date": ..., "<field>": value, ...}.
func (r MergedRow) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	d, err := json.Marshal(r.Date)
	if err != nil {
		return nil, err
	}
	buf.Write(d)
	for _, k := range keys {
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(r.Values[k])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
