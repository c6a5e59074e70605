package model

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// BiasTier maps a total score range to a descriptive label.
type BiasTier struct {
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

// Bias is the descriptive read of the latest indicator row.
// It summarises the frame and never recommends an order.
type Bias struct {
	Factors    []FactorScore `json:"factors"`
	TotalScore float64       `json:"total_score"`
	Tier       BiasTier      `json:"tier"`
	Patterns   []string      `json:"patterns,omitempty"`
	WarningMsg string        `json:"warning,omitempty"`
}
