package domain

// PriceBreakdown is derived from a proposal on every change and never stored.
// Amounts are in currency units rounded to cents.
type PriceBreakdown struct {
	Subtotal      float64 `json:"subtotal"`
	Taxes         float64 `json:"taxes"`
	Markup        float64 `json:"markup"`
	Total         float64 `json:"total"`
	PricePerAdult float64 `json:"price_per_adult"`
	PricePerChild float64 `json:"price_per_child"`
	Currency      string  `json:"currency"`

	// Formatted holds display strings for each amount, keyed by field name.
	Formatted map[string]string `json:"formatted,omitempty"`
}
