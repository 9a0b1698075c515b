package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/gamemeta/internal/matcher"
	"github.com/agentstation/gamemeta/internal/metrics"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/logging"
	"github.com/agentstation/gamemeta/pkg/reconcile"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// outcome is the result of one attempt at an entity.
type outcome struct {
	result reconcile.Result
	failed map[sources.ID]error
	panic  error
	stack  []byte
	fatal  error
}

func (o outcome) ok() bool {
	return o.fatal == nil && o.panic == nil && len(o.failed) == 0
}

// err joins the failures of the attempt in source order.
func (o outcome) err() error {
	var errs []error
	if o.panic != nil {
		errs = append(errs, o.panic)
	}
	for _, id := range sources.IDs() {
		if err, ok := o.failed[id]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o outcome) failedSources() []string {
	var out []string
	for _, id := range sources.IDs() {
		if _, ok := o.failed[id]; ok {
			out = append(out, id.String())
		}
	}
	return out
}

// searchResult is what one provider returned for an entity.
type searchResult struct {
	id         sources.ID
	candidates []games.Candidate
	err        error
}

// attempt queries every provider once and reconciles what was accepted.
// Failing sources are absent from the result. A panic anywhere in the
// attempt is recovered and reported as a failure of the attempt.
func (p *Pipeline) attempt(ctx context.Context, key string) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{
				result: reconcile.Reconcile(key, reconcile.Accepted{}),
				panic:  fmt.Errorf("panic: %v", r),
				stack:  debug.Stack(),
			}
		}
	}()

	var results []searchResult
	var err error
	if p.cfg.Concurrent {
		results, err = p.searchConcurrently(ctx, key)
	} else {
		results, err = p.searchSequentially(ctx, key)
	}
	if err != nil {
		return outcome{fatal: err}
	}

	failed := make(map[sources.ID]error)
	for _, r := range results {
		if r.err != nil {
			failed[r.id] = r.err
		}
	}
	return outcome{
		result: reconcile.Reconcile(key, p.verdicts(ctx, key, results)),
		failed: failed,
	}
}

func (p *Pipeline) search(ctx context.Context, provider sources.Provider, key string) searchResult {
	id := provider.ID()
	ctx = logging.WithSource(ctx, id.String())
	candidates, err := p.controller.Do(ctx, id, func(ctx context.Context) ([]games.Candidate, error) {
		return provider.Search(ctx, key, p.cfg.SearchLimit)
	})
	if err != nil && !isFatal(ctx, err) {
		logging.FromContext(ctx).Warn().Err(err).Msg("Provider search failed")
	}
	return searchResult{id: id, candidates: candidates, err: err}
}

func (p *Pipeline) searchSequentially(ctx context.Context, key string) ([]searchResult, error) {
	results := make([]searchResult, 0, len(p.providers))
	for _, provider := range p.providers {
		r := p.search(ctx, provider, key)
		if isFatal(ctx, r.err) {
			return nil, fatalErr(ctx, r.err)
		}
		results = append(results, r)
	}
	return results, nil
}

// searchConcurrently queries all providers at once. A fatal error cancels
// the remaining searches.
func (p *Pipeline) searchConcurrently(ctx context.Context, key string) ([]searchResult, error) {
	results := make([]searchResult, len(p.providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, provider := range p.providers {
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					results[i] = searchResult{
						id:  provider.ID(),
						err: fmt.Errorf("panic: %v\n%s", rec, debug.Stack()),
					}
				}
			}()
			r := p.search(gctx, provider, key)
			if errors.IsRateLimitExceeded(r.err) {
				return r.err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// verdicts evaluates the top candidate of every source in source order. The
// first accepted candidate becomes the reference for the sources after it.
func (p *Pipeline) verdicts(ctx context.Context, key string, results []searchResult) reconcile.Accepted {
	accepted := make(reconcile.Accepted)
	ref := matcher.NewReference(key)
	anchored := false

	for _, id := range sources.IDs() {
		r, ok := find(results, id)
		if !ok || r.err != nil || len(r.candidates) == 0 {
			continue
		}
		c := r.candidates[0]
		verdict, score := p.matcher.Verdict(ref, c)
		metrics.Verdicts.WithLabelValues(id.String(), verdict.String()).Inc()
		logging.FromContext(ctx).Debug().
			Str("source", id.String()).
			Str("candidate", c.Name).
			Str("reference", ref.Name).
			Float64("score", score).
			Stringer("verdict", verdict).
			Msg("Identity verdict")

		if !verdict.Accepted() {
			continue
		}
		accepted[id] = c
		if !anchored {
			ref = matcher.FromCandidate(c)
			anchored = true
		}
	}
	return accepted
}

func find(results []searchResult, id sources.ID) (searchResult, bool) {
	for _, r := range results {
		if r.id == id {
			return r, true
		}
	}
	return searchResult{}, false
}

// isFatal reports whether err ends the run rather than the attempt.
func isFatal(ctx context.Context, err error) bool {
	return err != nil && (errors.IsRateLimitExceeded(err) || ctx.Err() != nil)
}

func fatalErr(ctx context.Context, err error) error {
	if errors.IsRateLimitExceeded(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// trace writes a failed attempt to the console between bracketed dividers.
func (p *Pipeline) trace(key string, out outcome) {
	title := fmt.Sprintf("[----- %s -----]", key)
	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(out.err().Error() + "\n")
	if len(out.stack) > 0 {
		b.Write(out.stack)
		if out.stack[len(out.stack)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	b.WriteString("[" + strings.Repeat("-", len(title)-2) + "]\n")
	fmt.Fprint(p.out, b.String())
}
