package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a float64 column cell where NaN means "undefined".
// It encodes NaN as JSON null and SQL NULL.
type Value float64

// NaN returns an undefined Value.
func NaN() Value { return Value(math.NaN()) }

// Valid reports whether v holds a finite number.
func (v Value) Valid() bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float returns v as float64 (NaN when undefined).
func (v Value) Float() float64 { return float64(v) }

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(v))
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = NaN()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Value(f)
	return nil
}

// Value implements driver.Valuer.
func (v Value) Value() (driver.Value, error) {
	if !v.Valid() {
		return nil, nil
	}
	return float64(v), nil
}

// Scan implements sql.Scanner.
func (v *Value) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v = NaN()
	case float64:
		*v = Value(s)
	case float32:
		*v = Value(s)
	case int64:
		*v = Value(s)
	case []byte:
		f, err := strconv.ParseFloat(string(s), 64)
		if err != nil {
			return fmt.Errorf("scan value %q: %w", s, err)
		}
		*v = Value(f)
	default:
		return fmt.Errorf("scan value: unsupported type %T", src)
	}
	return nil
}

// Values converts a float64 column into Values.
func Values(col []float64) []Value {
	out := make([]Value, len(col))
	for i, f := range col {
		out[i] = Value(f)
	}
	return out
}
