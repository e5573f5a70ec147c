// Package harvest runs one isolated browser session per requested source and
// collects whatever each source yields, so a broken source never costs the
// others their records.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kuchikomi/internal/browser"
	"kuchikomi/internal/metrics"
	"kuchikomi/internal/review"
	"kuchikomi/internal/scraper"
	"kuchikomi/internal/strategy"
)

var (
	ErrNoRequests    = errors.New("at least one source request is required")
	ErrUnknownSource = errors.New("unknown source")
	ErrEmptyURL      = errors.New("source url is empty")
	ErrNoOpener      = errors.New("no session opener configured")
)

// Request asks for the reviews of one source. Limit <= 0 means no limit.
type Request struct {
	Source review.Source
	URL    string
	Limit  int
}

// Validate checks a batch of requests before any browser is launched.
func Validate(reqs []Request) error {
	if len(reqs) == 0 {
		return ErrNoRequests
	}
	for _, r := range reqs {
		if src, err := review.ParseSource(string(r.Source)); err != nil || src != r.Source {
			return fmt.Errorf("%w: %q", ErrUnknownSource, r.Source)
		}
		if r.URL == "" {
			return fmt.Errorf("%w: %s", ErrEmptyURL, r.Source)
		}
		if r.Limit < 0 {
			return fmt.Errorf("limit for %s must not be negative, got %d", r.Source, r.Limit)
		}
	}
	return nil
}

// Opener starts the isolated session a single source harvest runs in.
type Opener func(ctx context.Context) (*browser.Session, error)

// BrowserOpener opens real browser sessions with cfg.
func BrowserOpener(cfg browser.Config) Opener {
	return func(ctx context.Context) (*browser.Session, error) {
		return browser.Open(ctx, cfg)
	}
}

// Lookup resolves the harvester for a source.
type Lookup func(source review.Source, opts scraper.Options) (scraper.Harvester, bool)

// Diagnostic explains why a source contributed no records.
type Diagnostic struct {
	// Stage is the session stage that failed, or "harvest".
	Stage string
	Err   error
}

func (d *Diagnostic) String() string {
	return fmt.Sprintf("%s: %v", d.Stage, d.Err)
}

// SourceResult is the outcome of one request.
type SourceResult struct {
	Request    Request
	Records    []review.Record
	Reason     strategy.Reason
	Ticks      int
	Skipped    int
	Elapsed    time.Duration
	Diagnostic *Diagnostic
}

// Failed reports whether the source was lost to an error.
func (r SourceResult) Failed() bool { return r.Diagnostic != nil }

// Report holds one result per request, in request order.
type Report struct {
	Results []SourceResult
}

// Records concatenates every source's records in request order.
func (r Report) Records() []review.Record {
	var out []review.Record
	for _, res := range r.Results {
		out = append(out, res.Records...)
	}
	return out
}

// Failures returns the results that carry a diagnostic.
func (r Report) Failures() []SourceResult {
	var out []SourceResult
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// Engine runs harvest requests sequentially.
type Engine struct {
	Open    Opener
	Lookup  Lookup
	Options scraper.Options
}

// NewEngine returns an engine that launches real browsers and uses the
// registered site adapters.
func NewEngine(cfg browser.Config, opts scraper.Options) *Engine {
	return &Engine{Open: BrowserOpener(cfg), Lookup: scraper.Get, Options: opts}
}

// Run harvests every request in order. It never fails as a whole: a source that
// cannot be harvested yields an empty result with a diagnostic.
func (e *Engine) Run(ctx context.Context, reqs []Request) Report {
	report := Report{Results: make([]SourceResult, 0, len(reqs))}
	for _, req := range reqs {
		report.Results = append(report.Results, e.runOne(ctx, req))
	}
	return report
}

func (e *Engine) runOne(ctx context.Context, req Request) (res SourceResult) {
	log := zerolog.Ctx(ctx).With().Str("source", string(req.Source)).Str("url", req.URL).Logger()
	ctx = log.WithContext(ctx)

	res = SourceResult{Request: req}
	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
	}()

	lookup := e.Lookup
	if lookup == nil {
		lookup = scraper.Get
	}
	h, ok := lookup(req.Source, e.Options)
	if !ok {
		return e.fail(ctx, res, "harvest", fmt.Errorf("%w: %q", ErrUnknownSource, req.Source))
	}

	if e.Open == nil {
		return e.fail(ctx, res, string(browser.StageLaunch), &browser.SessionError{Stage: browser.StageLaunch, Err: ErrNoOpener})
	}
	sess, err := e.Open(ctx)
	if err != nil {
		return e.fail(ctx, res, stageOf(err), err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to release browser session")
		}
	}()

	out, err := h.Harvest(ctx, sess, req.URL, req.Limit)
	if err != nil {
		return e.fail(ctx, res, stageOf(err), err)
	}

	res.Records = out.Records
	res.Reason = out.Reason
	res.Ticks = out.Ticks
	res.Skipped = out.Skipped

	metrics.ObserveHarvest(string(req.Source), string(out.Reason), len(out.Records), out.Skipped, time.Since(start).Seconds())
	ev := log.Info()
	if out.Reason.Failure() {
		ev = log.Warn()
	}
	ev.Str("reason", string(out.Reason)).
		Int("records", len(out.Records)).
		Int("skipped", out.Skipped).
		Msg("source harvested")
	return res
}

func (e *Engine) fail(ctx context.Context, res SourceResult, stage string, err error) SourceResult {
	zerolog.Ctx(ctx).Error().Err(err).Str("stage", stage).Msg("source produced no records")
	metrics.ObserveFailure(string(res.Request.Source), stage)
	res.Records = nil
	res.Diagnostic = &Diagnostic{Stage: stage, Err: err}
	return res
}

func stageOf(err error) string {
	var se *browser.SessionError
	if errors.As(err, &se) {
		return string(se.Stage)
	}
	return "harvest"
}
