package pattern

import "ChartSentinel/internal/model"

// Flags holds every detector's output, aligned with the input rows.
type Flags struct {
	FVG              []int
	HeadAndShoulders []int
	Harmonic         []int
	Wedge            []int
	Triangle         []int
	DoubleTop        []int
	DoubleBottom     []int
}

// DetectAll runs the seven detectors over cols. The first failing detector
// aborts the run.
func DetectAll(cols model.Columns, p Params) (*Flags, error) {
	if err := cols.Require("high", "low", "close"); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	h, l, c := cols.High, cols.Low, cols.Close

	var (
		f   Flags
		err error
	)
	if f.FVG, err = FVG(h, l, p.Window); err != nil {
		return nil, err
	}
	if f.HeadAndShoulders, err = HeadAndShoulders(h, l, c, p.Tolerance); err != nil {
		return nil, err
	}
	if f.Harmonic, err = Harmonic(h, l, p.Tolerance); err != nil {
		return nil, err
	}
	if f.Wedge, err = Wedge(h, l, p); err != nil {
		return nil, err
	}
	if f.Triangle, err = Triangle(h, l, p); err != nil {
		return nil, err
	}
	if f.DoubleTop, err = DoubleTop(h, c, p); err != nil {
		return nil, err
	}
	if f.DoubleBottom, err = DoubleBottom(l, c, p); err != nil {
		return nil, err
	}
	return &f, nil
}
