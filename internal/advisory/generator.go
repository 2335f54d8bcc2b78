package advisory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformed is returned when a generator response does not have the
// expected shape.
var ErrMalformed = errors.New("malformed advisory response")

// Generator produces advisory tips for flagged benchmarks.
type Generator interface {
	GenerateTips(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// GenerateTips calls f.
func (f GeneratorFunc) GenerateTips(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// BenchmarkPayload is the wire form of a flagged benchmark.
type BenchmarkPayload struct {
	Category    string  `json:"category"`
	SpentAmount float64 `json:"spentAmount"`
	ActualShare float64 `json:"actualShare"`
	TargetShare float64 `json:"targetShare"`
	Deviation   float64 `json:"deviation"`
}

// Request is sent to the text-generation service.
type Request struct {
	Benchmarks  []BenchmarkPayload `json:"benchmarks"`
	TotalIncome float64            `json:"totalIncome"`
	Prompts     []string           `json:"prompts"`
}

// GeneratedTip is one tip as returned by the text-generation service.
type GeneratedTip struct {
	Category   string  `json:"category"`
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Score      float64 `json:"score"`
}

// Response is the body returned by the text-generation service.
type Response struct {
	Tips []GeneratedTip `json:"tips"`
}

// Validate checks that the response carries a tip list whose entries have a
// confidence within [0, 1]. A title is required only above ConfidenceCutoff;
// lower entries are discarded anyway.
func (r Response) Validate() error {
	if r.Tips == nil {
		return fmt.Errorf("%w: missing tips", ErrMalformed)
	}
	for i, t := range r.Tips {
		if t.Confidence > ConfidenceCutoff && strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("%w: tip %d has no title", ErrMalformed, i)
		}
		if math.IsNaN(t.Confidence) || t.Confidence < 0 || t.Confidence > 1 {
			return fmt.Errorf("%w: tip %d confidence %v out of range", ErrMalformed, i, t.Confidence)
		}
	}
	return nil
}

// NewRequest builds the request for the flagged benchmarks of c.
func NewRequest(c Comparison, flagged []Benchmark) Request {
	req := Request{
		Benchmarks:  make([]BenchmarkPayload, 0, len(flagged)),
		TotalIncome: c.TotalIncome.InexactFloat64(),
		Prompts:     make([]string, 0, len(flagged)),
	}
	for _, b := range flagged {
		req.Benchmarks = append(req.Benchmarks, BenchmarkPayload{
			Category:    b.Category,
			SpentAmount: b.SpentAmount.InexactFloat64(),
			ActualShare: b.ActualShare.InexactFloat64(),
			TargetShare: b.TargetShare.InexactFloat64(),
			Deviation:   b.Deviation.InexactFloat64(),
		})
		req.Prompts = append(req.Prompts, Prompt(b))
	}
	return req
}
