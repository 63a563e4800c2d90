package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/factgate/internal/model"
)

// Gateway is the uniform call contract to one external judgment provider.
// Implementations differ only in request shaping and response parsing.
//
// Evaluate returns either a verdict, a *TransportError (network, timeout,
// 5xx) or a *ParseFailure (unrecoverable response). Callers classify with
// errors.As; only transport errors count toward the circuit breaker.
type Gateway interface {
	Name() string
	Evaluate(ctx context.Context, prompt string) (*model.Verdict, error)
}

// TransportError is a network-level failure: timeout, connection reset,
// or a 5xx from the provider.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseFailure means the provider answered but the response could not be
// turned into a verdict even after repair. The provider abstains from the
// vote; this never trips the breaker.
type ParseFailure struct {
	Provider string
	Raw      string
	Err      error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("%s: parse failure: %v", e.Provider, e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// verdictPayload is the JSON contract every provider is prompted to emit.
type verdictPayload struct {
	RegulationsApproved []string `json:"regulations_approved"`
	RegulationsDisputed []string `json:"regulations_disputed"`
	RegulationsMissing  []string `json:"regulations_missing"`
	FactualErrors       []string `json:"factual_errors"`
	FactualWarnings     []string `json:"factual_warnings"`
	CostEstimate        float64  `json:"cost_estimate"`
	CostFeedback        string   `json:"cost_feedback"`
	Confidence          int      `json:"confidence"`
}

// parseVerdict runs the repair pipeline over raw provider output and
// decodes the verdict contract.
func parseVerdict(providerID, raw string) (*model.Verdict, error) {
	repaired, err := Repair(raw)
	if err != nil {
		return nil, &ParseFailure{Provider: providerID, Raw: raw, Err: err}
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return nil, &ParseFailure{Provider: providerID, Raw: raw, Err: err}
	}

	if payload.Confidence < 0 {
		payload.Confidence = 0
	}
	if payload.Confidence > 100 {
		payload.Confidence = 100
	}

	return &model.Verdict{
		ProviderID:          providerID,
		RegulationsApproved: payload.RegulationsApproved,
		RegulationsDisputed: payload.RegulationsDisputed,
		RegulationsMissing:  payload.RegulationsMissing,
		FactualErrors:       payload.FactualErrors,
		FactualWarnings:     payload.FactualWarnings,
		CostEstimate:        payload.CostEstimate,
		CostFeedback:        payload.CostFeedback,
		Confidence:          payload.Confidence,
	}, nil
}

// retrySleep is the sleep function used between retries (injectable for tests)
var retrySleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// withRetries retries fn with bounded exponential backoff. Only transport
// errors are retried; parse failures surface immediately.
func withRetries(ctx context.Context, attempts int, fn func() (*model.Verdict, error)) (*model.Verdict, error) {
	backoff := 500 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= attempts; attempt++ {
		if attempt > 0 {
			if err := retrySleep(ctx, backoff); err != nil {
				return nil, lastErr
			}
			backoff *= 2
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		var te *TransportError
		if !errors.As(err, &te) {
			return nil, err
		}
	}

	return nil, lastErr
}
