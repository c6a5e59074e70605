package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Cross classifies a short/long moving-average relationship change at one row.
type Cross int8

const (
	CrossNone Cross = 0
	CrossUp   Cross = 1
	CrossDown Cross = -1
)

func (c Cross) String() string {
	switch c {
	case CrossUp:
		return "up"
	case CrossDown:
		return "down"
	default:
		return "none"
	}
}

// ParseCross is the inverse of String.
func ParseCross(s string) (Cross, error) {
	switch s {
	case "up", "1":
		return CrossUp, nil
	case "down", "-1":
		return CrossDown, nil
	case "none", "0", "":
		return CrossNone, nil
	}
	return CrossNone, fmt.Errorf("invalid cross %q", s)
}

func (c Cross) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *Cross) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCross(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Cross) Value() (driver.Value, error) { return c.String(), nil }

func (c *Cross) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*c = CrossNone
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		s = fmt.Sprint(v)
	default:
		return fmt.Errorf("scan cross: unsupported type %T", src)
	}
	parsed, err := ParseCross(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
