// Package tokenest provides an auxiliary token-count estimate. It never
// gates a budget decision — byte counts are the canonical unit
// everywhere in this engine (spec §3, §4.6-4.8). No engine code calls
// it: the EstimatedTokens field of telemetry.PackMetricsEvent is left
// at zero.
package tokenest

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator wraps a tiktoken encoding.
type Estimator struct {
	enc *tiktoken.Tiktoken
}

// New loads the named tiktoken encoding (e.g. "cl100k_base").
func New(encoding string) (*Estimator, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", encoding, err)
	}
	return &Estimator{enc: enc}, nil
}

// Count returns the estimated token count of text.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(e.enc.Encode(text, nil, nil))
}
