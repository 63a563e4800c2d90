package ensemble

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ppiankov/factgate/internal/cache"
	"github.com/ppiankov/factgate/internal/guard"
	"github.com/ppiankov/factgate/internal/model"
	"github.com/ppiankov/factgate/internal/provider"
)

// guarded pairs a gateway with its own circuit breaker. Breakers are
// per-provider and independent: one provider tripping never blocks
// another.
type guarded struct {
	gateway provider.Gateway
	breaker *guard.Breaker
}

// Orchestrator fans the identical review prompt out to every available
// provider and merges the responses into a ConsensusResult. It never
// returns an error: in the worst case the result degrades to skipped.
type Orchestrator struct {
	providers []*guarded
	limiter   *guard.Limiter
	cache     cache.VerdictCache // nil disables memoization
	cfg       model.EnsembleConfig
	rate      model.RateLimitConfig
	log       *slog.Logger
}

// NewOrchestrator wires gateways with per-provider breakers, the shared
// rate limiter, and the verdict cache.
func NewOrchestrator(
	gateways []provider.Gateway,
	breakerCfg model.BreakerConfig,
	rateCfg model.RateLimitConfig,
	verdictCache cache.VerdictCache,
	cfg model.EnsembleConfig,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	o := &Orchestrator{
		limiter: guard.NewLimiter(rateCfg.MaxRequestsPerMinute, rateCfg.BurstSize),
		cache:   verdictCache,
		cfg:     cfg,
		rate:    rateCfg,
		log:     log,
	}
	for _, gw := range gateways {
		o.providers = append(o.providers, &guarded{
			gateway: gw,
			breaker: guard.NewBreaker(breakerCfg),
		})
	}
	return o
}

// response carries one provider's outcome back to the collector.
type response struct {
	provider string
	verdict  *model.Verdict // nil when the provider abstained or failed
}

// Validate runs one ensemble review. Slow or failed providers never block
// faster ones from contributing; consensus depends only on the set of
// responses gathered before the overall deadline.
func (o *Orchestrator) Validate(ctx context.Context, in ArticleInput) model.ConsensusResult {
	names := make([]string, 0, len(o.providers))
	for _, p := range o.providers {
		names = append(names, p.gateway.Name())
	}

	key := cache.Fingerprint(in.digest(), names, o.cfg.PromptVersion)
	if o.cache != nil {
		if cached, ok := o.cache.Get(key); ok {
			cached.FromCache = true
			o.log.Debug("consensus cache hit", "key", key)
			return *cached
		}
	}

	selected, unavailable := o.selectProviders(ctx)
	prompt := BuildPrompt(in)

	verdicts := o.dispatch(ctx, selected, prompt)

	result := merge(verdicts, o.cfg)
	result.Unavailable = unavailable

	if o.cache != nil && result.Level != model.LevelSkipped {
		if err := o.cache.Set(key, &result); err != nil {
			// Fail open: a cache fault degrades to re-verification.
			o.log.Warn("verdict cache store failed", "error", err)
		}
	}

	return result
}

// selectProviders returns the providers whose breaker admits a call and
// whose rate limiter grants a token. The rest are recorded as
// unavailable, not as failures.
func (o *Orchestrator) selectProviders(ctx context.Context) (selected []*guarded, unavailable []string) {
	for _, p := range o.providers {
		name := p.gateway.Name()

		if !p.breaker.Allow() {
			o.log.Debug("provider skipped: circuit open", "provider", name)
			unavailable = append(unavailable, name)
			continue
		}

		if o.rate.WaitForToken {
			if err := o.limiter.Wait(ctx, name); err != nil {
				unavailable = append(unavailable, name)
				continue
			}
		} else if !o.limiter.Allow(name) {
			o.log.Debug("provider skipped: rate limited", "provider", name)
			unavailable = append(unavailable, name)
			continue
		}

		selected = append(selected, p)
	}
	return selected, unavailable
}

// dispatch sends the prompt to all selected providers concurrently and
// gathers whatever responds within the overall deadline. The channel is
// buffered to the provider count so a late responder's send never blocks;
// its result is simply never read.
func (o *Orchestrator) dispatch(ctx context.Context, selected []*guarded, prompt string) []model.Verdict {
	if len(selected) == 0 {
		return nil
	}

	results := make(chan response, len(selected))

	for _, p := range selected {
		go func(p *guarded) {
			callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
			defer cancel()

			start := time.Now()
			verdict, err := p.gateway.Evaluate(callCtx, prompt)
			if err != nil {
				var te *provider.TransportError
				if errors.As(err, &te) {
					p.breaker.RecordFailure()
					o.log.Warn("provider transport failure", "provider", p.gateway.Name(), "error", err)
				} else {
					// Parse failure: the provider abstains from the vote.
					o.log.Warn("provider abstained", "provider", p.gateway.Name(), "error", err)
				}
				results <- response{provider: p.gateway.Name()}
				return
			}

			p.breaker.RecordSuccess()
			verdict.Latency = time.Since(start)
			results <- response{provider: p.gateway.Name(), verdict: verdict}
		}(p)
	}

	deadline := time.NewTimer(o.cfg.OverallTimeout)
	defer deadline.Stop()

	var verdicts []model.Verdict
	for received := 0; received < len(selected); received++ {
		select {
		case r := <-results:
			if r.verdict != nil {
				verdicts = append(verdicts, *r.verdict)
			}
		case <-deadline.C:
			o.log.Warn("ensemble deadline elapsed", "responded", received, "requested", len(selected))
			return verdicts
		case <-ctx.Done():
			return verdicts
		}
	}

	return verdicts
}
