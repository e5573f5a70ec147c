package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
	"github.com/ysmood/gson"
)

// Stage names the step at which a session could not be established.
type Stage string

const (
	StageLaunch   Stage = "launch"
	StageConnect  Stage = "connect"
	StagePage     Stage = "page"
	StageNavigate Stage = "navigate"
)

// ErrNavigationTimeout is wrapped by errors for page or selector waits that
// exceeded their bound.
var ErrNavigationTimeout = errors.New("navigation timeout")

// SessionError reports that a browser session could not be established or
// could not reach its start page.
type SessionError struct {
	Stage Stage
	Err   error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session %s failed: %v", e.Stage, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// WaitStrategy selects what Navigate waits for after the page commits.
type WaitStrategy string

const (
	WaitNone WaitStrategy = "none" // return once the navigation commits
	WaitLoad WaitStrategy = "load" // wait for the load event
	WaitIdle WaitStrategy = "idle" // wait for the load event and network idle
)

// Session is one isolated browser process and page owned by a single harvest call.
type Session struct {
	browser *Browser
	page    *rod.Page
	closed  bool
}

// Open launches a browser and a hardened page. The caller must Close the session.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	b, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		return nil, &SessionError{Stage: StagePage, Err: err}
	}

	zerolog.Ctx(ctx).Debug().
		Bool("headless", b.cfg.Headless).
		Str("proxy", b.cfg.ProxyURL).
		Str("locale", b.cfg.Locale).
		Msg("browser session opened")

	return &Session{browser: b, page: page}, nil
}

// Close releases the page, the browser and its process. It is safe to call on a
// nil or already closed session.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close page: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Page exposes the underlying rod page.
func (s *Session) Page() *rod.Page {
	return s.page
}

// URL returns the current page URL, or "" when it cannot be read.
func (s *Session) URL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Navigate loads url. Failing to reach the page is a SessionError; a wait that
// runs out after the page committed is logged and treated as success.
func (s *Session) Navigate(ctx context.Context, url string, wait WaitStrategy, timeout time.Duration) error {
	log := zerolog.Ctx(ctx)
	page := s.page.Context(ctx)

	if err := page.Timeout(timeout).Navigate(url); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %s after %s", ErrNavigationTimeout, url, timeout)
		}
		return &SessionError{Stage: StageNavigate, Err: err}
	}

	switch wait {
	case WaitLoad, WaitIdle:
		if err := page.Timeout(timeout).WaitLoad(); err != nil {
			log.Warn().Err(fmt.Errorf("%w: %w", ErrNavigationTimeout, err)).Str("url", url).
				Msg("page load wait ran out, continuing with current content")
			return nil
		}
		if wait == WaitIdle {
			idle := page.Timeout(timeout).WaitRequestIdle(
				500*time.Millisecond, nil, nil,
				[]proto.NetworkResourceType{proto.NetworkResourceTypeImage, proto.NetworkResourceTypeMedia},
			)
			idle()
		}
	}
	return nil
}

// WaitFor waits up to timeout for selector to appear. It never fails: on timeout
// it logs and returns false so the caller can continue with what is present.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) bool {
	if _, err := s.page.Context(ctx).Timeout(timeout).Element(selector); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(fmt.Errorf("%w: %w", ErrNavigationTimeout, err)).
			Str("selector", selector).
			Dur("timeout", timeout).
			Msg("selector wait ran out, continuing")
		return false
	}
	return true
}

// Snapshot returns the rendered HTML of the whole document.
func (s *Session) Snapshot(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).Timeout(15 * time.Second).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

// Eval runs js in the page and returns its JSON value.
func (s *Session) Eval(ctx context.Context, timeout time.Duration, js string, args ...interface{}) (gson.JSON, error) {
	res, err := s.page.Context(ctx).Timeout(timeout).Eval(js, args...)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

// EvalBool runs js and reports its boolean result; evaluation errors read as false.
func (s *Session) EvalBool(ctx context.Context, timeout time.Duration, js string, args ...interface{}) bool {
	v, err := s.Eval(ctx, timeout, js, args...)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("script evaluation failed")
		return false
	}
	return v.Bool()
}

// Wheel dispatches a mouse wheel gesture over the page.
func (s *Session) Wheel(dy float64) error {
	return s.page.Mouse.Scroll(0, dy, 1)
}

// ClickFirst clicks the first element matching any selector and returns it.
func (s *Session) ClickFirst(ctx context.Context, selectors []string, timeout time.Duration) (string, bool) {
	page := s.page.Context(ctx)
	for _, sel := range selectors {
		has, el, err := page.Has(sel)
		if err != nil || !has {
			continue
		}
		if err := el.Timeout(timeout).Click(proto.InputMouseButtonLeft, 1); err != nil {
			continue
		}
		return sel, true
	}
	return "", false
}

// ClickAll clicks up to max elements matching selector (all of them when max <= 0),
// pausing between clicks. Failed clicks are skipped. It returns the number clicked.
func (s *Session) ClickAll(ctx context.Context, selector string, max int, pause time.Duration) int {
	els, err := s.page.Context(ctx).Timeout(5 * time.Second).Elements(selector)
	if err != nil {
		return 0
	}
	clicked := 0
	for i, el := range els {
		if max > 0 && i >= max {
			break
		}
		if err := el.Timeout(2*time.Second).Click(proto.InputMouseButtonLeft, 1); err != nil {
			continue
		}
		clicked++
		if pause > 0 && !sleep(ctx, pause) {
			break
		}
	}
	return clicked
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
