package pipeline

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"ChartSentinel/internal/pattern"
)

var validate = validator.New()

// Params are the overridable window and tolerance settings of one run.
type Params struct {
	MinRows          int     `yaml:"min_rows" json:"min_rows" default:"50" validate:"gte=1"`
	MinorPivotWindow int     `yaml:"minor_pivot_window" json:"minor_pivot_window" default:"10" validate:"gte=1"`
	FibWindow        int     `yaml:"fib_window" json:"fib_window" default:"20" validate:"gte=1"`
	PatternWindow    int     `yaml:"pattern_window" json:"pattern_window" default:"10" validate:"gte=2"`
	PatternTolerance float64 `yaml:"pattern_tolerance" json:"pattern_tolerance" default:"0.02" validate:"gt=0,lt=1"`
}

// DefaultParams returns the tagged defaults.
func DefaultParams() Params {
	var p Params
	defaults.MustSet(&p)
	return p
}

// Validate checks every field against its tag.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("pipeline params: %w", err)
	}
	return nil
}

// Floor is the shortest series a run accepts: the configured minimum or the
// largest window in use, whichever is larger.
func (p Params) Floor() int {
	floor := p.MinRows
	for _, w := range []int{p.MinorPivotWindow, p.FibWindow, p.PatternWindow} {
		if w > floor {
			floor = w
		}
	}
	return floor
}

func (p Params) patterns() pattern.Params {
	return pattern.Params{Window: p.PatternWindow, Tolerance: p.PatternTolerance}
}
