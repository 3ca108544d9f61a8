package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ErrInvalidPlots is reported for a plots value that is not a whole number.
var ErrInvalidPlots = errors.New("invalid plots value")

// PlotCount is the number of installments of a debt as sent by the client.
// Decoding never fails: the raw JSON is kept and validated by Int, so a
// malformed count is reported with a clear message instead of a decode error.
type PlotCount struct {
	raw json.RawMessage
}

// NewPlotCount returns a PlotCount holding n.
func NewPlotCount(n int) PlotCount {
	return PlotCount{raw: json.RawMessage(strconv.Itoa(n))}
}

// RawPlotCount returns a PlotCount holding arbitrary JSON, as a client might send it.
func RawPlotCount(raw string) PlotCount {
	return PlotCount{raw: json.RawMessage(raw)}
}

// Int returns the count. Only JSON integers are accepted: strings, fractions
// and missing values yield ErrInvalidPlots.
func (p PlotCount) Int() (int, error) {
	n, err := strconv.Atoi(string(bytes.TrimSpace(p.raw)))
	if err != nil {
		return 0, ErrInvalidPlots
	}
	return n, nil
}

// MarshalJSON implements json.Marshaler.
func (p PlotCount) MarshalJSON() ([]byte, error) {
	if len(p.raw) == 0 {
		return []byte("null"), nil
	}
	return p.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PlotCount) UnmarshalJSON(data []byte) error {
	p.raw = append(p.raw[:0], data...)
	return nil
}
