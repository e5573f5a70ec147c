package strategy_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kuchikomi/internal/review"
	"kuchikomi/internal/strategy"
)

// growingList fakes an infinite-scroll list whose DOM holds size(tick) reviews
// after the tick-th reveal.
type growingList struct {
	size    func(tick int) int
	reveals int
	snaps   int
}

func (g *growingList) Source() review.Source { return review.SourceMapListing }

func (g *growingList) RevealMore(context.Context) (bool, error) {
	g.reveals++
	return true, nil
}

func (g *growingList) Snapshot(context.Context) (string, error) {
	g.snaps++
	return strconv.Itoa(g.size(g.reveals)), nil
}

func (g *growingList) ParseSnapshot(snapshot string) []review.Result {
	n, _ := strconv.Atoi(snapshot)
	out := make([]review.Result, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, review.Result{Raw: review.RawRecord{Text: fmt.Sprintf("review body %04d", i)}})
	}
	return out
}

func TestScrollConvergence_StopsAtLimit(t *testing.T) {
	t.Parallel()

	list := &growingList{size: func(tick int) int { return 10 * tick }}
	out := strategy.ScrollConvergence{}.Run(context.Background(), list, 50)

	assert.Equal(t, strategy.ReasonLimitReached, out.Reason)
	assert.Equal(t, 5, out.Ticks)
	assert.Equal(t, 5, list.reveals)
	assert.Len(t, out.Records, 50)
}

func TestScrollConvergence_TrimsOvershootToLimit(t *testing.T) {
	t.Parallel()

	list := &growingList{size: func(tick int) int { return 15 * tick }}
	out := strategy.ScrollConvergence{}.Run(context.Background(), list, 50)

	assert.Equal(t, strategy.ReasonLimitReached, out.Reason)
	assert.Equal(t, 4, out.Ticks)
	require.Len(t, out.Records, 50)
	assert.Equal(t, "review body 0049", out.Records[49].Text)
}

func TestScrollConvergence_StopsAfterStall(t *testing.T) {
	t.Parallel()

	list := &growingList{size: func(tick int) int {
		if tick > 20 {
			tick = 20
		}
		return 10 * tick
	}}
	out := strategy.ScrollConvergence{StallThreshold: 8, MaxTicks: 150}.Run(context.Background(), list, 0)

	assert.Equal(t, strategy.ReasonConverged, out.Reason)
	assert.False(t, out.Reason.Failure())
	assert.Equal(t, 28, out.Ticks)
	assert.Len(t, out.Records, 200)
}

func TestScrollConvergence_StallResetsOnGrowth(t *testing.T) {
	t.Parallel()

	// Grows on ticks 1, 6 and 11, then never again.
	list := &growingList{size: func(tick int) int {
		switch {
		case tick >= 11:
			return 30
		case tick >= 6:
			return 20
		default:
			return 10
		}
	}}
	out := strategy.ScrollConvergence{StallThreshold: 5}.Run(context.Background(), list, 0)

	assert.Equal(t, strategy.ReasonConverged, out.Reason)
	assert.Equal(t, 16, out.Ticks)
	assert.Len(t, out.Records, 30)
}

func TestScrollConvergence_IterationCap(t *testing.T) {
	t.Parallel()

	list := &growingList{size: func(tick int) int { return tick }}
	out := strategy.ScrollConvergence{}.Run(context.Background(), list, 0)

	assert.Equal(t, strategy.ReasonIterationCap, out.Reason)
	assert.Equal(t, strategy.DefaultMaxTicks, out.Ticks)
	assert.Len(t, out.Records, strategy.DefaultMaxTicks)
}

func TestScrollConvergence_RepeatedPassesDoNotDuplicate(t *testing.T) {
	t.Parallel()

	list := &growingList{size: func(int) int { return 7 }}
	out := strategy.ScrollConvergence{StallThreshold: 3}.Run(context.Background(), list, 0)

	assert.Equal(t, 4, out.Ticks)
	assert.Len(t, out.Records, 7)
}

// expandingCard fakes a list with one review card that shows a truncated body on
// the first tick and its expanded body afterwards.
type expandingCard struct {
	reveals int
}

const (
	truncatedBody = "出汁がしっかり効いていて美味しかった。麺は…"
	expandedBody  = "出汁がしっかり効いていて美味しかった。麺はもちもちで、また来たいと思います。"
)

func (e *expandingCard) Source() review.Source { return review.SourceMapListing }

func (e *expandingCard) RevealMore(context.Context) (bool, error) {
	e.reveals++
	return true, nil
}

func (e *expandingCard) Snapshot(context.Context) (string, error) {
	if e.reveals < 2 {
		return truncatedBody, nil
	}
	return expandedBody, nil
}

func (e *expandingCard) ParseSnapshot(snapshot string) []review.Result {
	return []review.Result{
		{Raw: review.RawRecord{ID: "card-1", ReviewerName: "山田", Rating: 4, Text: snapshot}},
		{Raw: review.RawRecord{Text: "Quiet room and a friendly host"}},
	}
}

func TestScrollConvergence_ExpandedCardReplacesTruncatedRead(t *testing.T) {
	t.Parallel()

	out := strategy.ScrollConvergence{StallThreshold: 3}.Run(context.Background(), &expandingCard{}, 0)

	assert.Equal(t, strategy.ReasonConverged, out.Reason)
	assert.Equal(t, 4, out.Ticks)
	require.Len(t, out.Records, 2)
	assert.Equal(t, expandedBody, out.Records[0].Text)
	assert.Equal(t, "山田", out.Records[0].ReviewerName)
	assert.Equal(t, "Quiet room and a friendly host", out.Records[1].Text)
}

func TestScrollConvergence_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list := &growingList{size: func(tick int) int { return tick }}
	out := strategy.ScrollConvergence{}.Run(ctx, list, 0)

	assert.Equal(t, strategy.ReasonCancelled, out.Reason)
	assert.True(t, out.Reason.Failure())
	assert.Equal(t, 0, list.snaps)
}

// pagedSite fakes a paginated listing; pages[i] is the markup of page i+1.
type pagedSite struct {
	pages     [][]string
	current   int
	requests  int
	revealErr error
}

func newPagedSite(pages ...[]string) *pagedSite {
	return &pagedSite{pages: pages, requests: 1}
}

func (p *pagedSite) Source() review.Source { return review.SourceDirectory }

func (p *pagedSite) RevealMore(context.Context) (bool, error) {
	if p.revealErr != nil {
		return false, p.revealErr
	}
	if p.current+1 >= len(p.pages) {
		return false, nil
	}
	p.current++
	p.requests++
	return true, nil
}

func (p *pagedSite) Snapshot(context.Context) (string, error) {
	return strconv.Itoa(p.current), nil
}

func (p *pagedSite) ParseSnapshot(snapshot string) []review.Result {
	i, _ := strconv.Atoi(snapshot)
	out := make([]review.Result, 0, len(p.pages[i]))
	for _, text := range p.pages[i] {
		out = append(out, review.Result{Raw: review.RawRecord{Text: text}})
	}
	return out
}

func page(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s review %02d", prefix, i)
	}
	return out
}

func TestPagedWalk_StopsAtEmptyPage(t *testing.T) {
	t.Parallel()

	site := newPagedSite(page("p1", 10), page("p2", 10), page("p3", 10), nil, page("p5", 10))
	out := strategy.PagedWalk{}.Run(context.Background(), site, 0)

	assert.Equal(t, strategy.ReasonEmptyPage, out.Reason)
	assert.Equal(t, 4, out.Ticks)
	assert.Equal(t, 4, site.requests, "no request after the empty page")
	assert.Len(t, out.Records, 30)
}

func TestPagedWalk_PageWithOnlySeenReviewsEndsWalk(t *testing.T) {
	t.Parallel()

	p2 := page("p2", 10)
	site := newPagedSite(page("p1", 10), p2, p2, page("p4", 10))
	out := strategy.PagedWalk{}.Run(context.Background(), site, 0)

	assert.Equal(t, strategy.ReasonEmptyPage, out.Reason)
	assert.Equal(t, 3, site.requests)
	assert.Len(t, out.Records, 20)
}

func TestPagedWalk_NoNextPage(t *testing.T) {
	t.Parallel()

	site := newPagedSite(page("p1", 10), page("p2", 5))
	out := strategy.PagedWalk{}.Run(context.Background(), site, 0)

	assert.Equal(t, strategy.ReasonNoNextPage, out.Reason)
	assert.Equal(t, 2, out.Ticks)
	assert.Len(t, out.Records, 15)
}

func TestPagedWalk_StopsAtLimit(t *testing.T) {
	t.Parallel()

	site := newPagedSite(page("p1", 10), page("p2", 10), page("p3", 10))
	out := strategy.PagedWalk{}.Run(context.Background(), site, 15)

	assert.Equal(t, strategy.ReasonLimitReached, out.Reason)
	assert.Equal(t, 2, site.requests)
	require.Len(t, out.Records, 15)
	assert.Equal(t, "p2 review 04", out.Records[14].Text)
}

func TestPagedWalk_NavigationFailureKeepsRecords(t *testing.T) {
	t.Parallel()

	site := newPagedSite(page("p1", 10), page("p2", 10))
	site.revealErr = errors.New("net::ERR_CONNECTION_RESET")
	out := strategy.PagedWalk{}.Run(context.Background(), site, 0)

	assert.Equal(t, strategy.ReasonNavigationFailed, out.Reason)
	assert.True(t, out.Reason.Failure())
	assert.Len(t, out.Records, 10)
}

func TestPagedWalk_MaxPages(t *testing.T) {
	t.Parallel()

	site := newPagedSite(page("p1", 10), page("p2", 10), page("p3", 10))
	out := strategy.PagedWalk{MaxPages: 2}.Run(context.Background(), site, 0)

	assert.Equal(t, strategy.ReasonIterationCap, out.Reason)
	assert.Len(t, out.Records, 20)
}

func TestJitterPacer(t *testing.T) {
	t.Parallel()

	p := strategy.JitterPacer{Min: 10 * time.Millisecond, Max: 20 * time.Millisecond}
	for i := 0; i < 100; i++ {
		d := p.Next()
		assert.GreaterOrEqual(t, d, p.Min)
		assert.LessOrEqual(t, d, p.Max)
	}

	fixed := strategy.JitterPacer{Min: 5 * time.Millisecond, Max: time.Millisecond}
	assert.Equal(t, 5*time.Millisecond, fixed.Next())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, strategy.JitterPacer{Min: time.Hour, Max: time.Hour}.Pause(ctx), context.Canceled)
}
