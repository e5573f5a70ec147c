package travelsite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kuchikomi/internal/review"
)

const reviewsHTML = `<html><body>
<div class="review-container" data-reviewid="901">
  <div class="member_info"><div class="info_text"><div>TravellerKen</div></div></div>
  <div class="userLocation">Osaka, Japan</div>
  <span class="ui_bubble_rating bubble_45"></span>
  <span class="ratingDate" title="2024年3月2日">投稿日：2024年3月</span>
  <p class="partial_entry">朝食の品数が多く、スタッフの対応も素晴らしかったです。</p>
</div>
<div class="review-container" data-reviewid="902">
  <span class="username">miki</span>
  <svg aria-label="5段階中4.0"></svg>
  <div class="date_visited">2024年1月</div>
  <div class="biGQs"><q><span>Great view of the harbour from the room.</span></q></div>
</div>
<div class="review-container" data-reviewid="903">
  <p class="partial_entry">朝食の品数が多く、スタッフの対応も素晴らしかったです。</p>
</div>
<div class="pageNumbers">
  <a class="pageNum current" data-page-number="1">1</a>
  <a class="pageNum" data-page-number="2">2</a>
</div>
</body></html>`

func TestParseSnapshot(t *testing.T) {
	t.Parallel()

	results := ParseSnapshot(reviewsHTML)
	require.Len(t, results, 3)

	first := results[0].Raw
	assert.Equal(t, "901", first.ID)
	assert.Equal(t, "TravellerKen", first.ReviewerName)
	assert.Equal(t, "Osaka, Japan", first.Location)
	assert.InDelta(t, 4.5, first.Rating, 1e-9)
	assert.Equal(t, "2024年3月2日", first.Date)
	assert.Equal(t, "朝食の品数が多く、スタッフの対応も素晴らしかったです。", first.Text)

	second := results[1].Raw
	assert.Equal(t, "miki", second.ReviewerName)
	assert.Empty(t, second.Location)
	assert.InDelta(t, 4.0, second.Rating, 1e-9)
	assert.Equal(t, "2024年1月", second.Date)
	assert.Equal(t, "Great view of the harbour from the room.", second.Text)

	c := review.NewCollector(review.SourceTravelSite)
	added, failed := c.AddAll(results)
	assert.Equal(t, 2, added)
	assert.Zero(t, failed)
}

func TestParseSnapshot_NewLayout(t *testing.T) {
	t.Parallel()

	html := `<div class="SvjLX _c"><span>Stayed two nights, quiet and clean rooms.</span><span>Read more</span></div>`
	results := ParseSnapshot(html)
	require.Len(t, results, 1)
	assert.Equal(t, "Stayed two nights, quiet and clean rooms.", results[0].Raw.Text)
}

func TestPageURL(t *testing.T) {
	t.Parallel()

	base := "https://www.tripadvisor.jp/Hotel_Review-g298564-d301234-Reviews-Hotel_Kyoto.html"

	first, ok := PageURL(base, 1)
	require.True(t, ok)
	assert.Equal(t, base, first)

	third, ok := PageURL(base, 3)
	require.True(t, ok)
	assert.Equal(t, "https://www.tripadvisor.jp/Hotel_Review-g298564-d301234-or30-Reviews-Hotel_Kyoto.html", third)

	// an offset already in the URL is replaced rather than stacked
	again, ok := PageURL(third, 2)
	require.True(t, ok)
	assert.Equal(t, "https://www.tripadvisor.jp/Hotel_Review-g298564-d301234-or15-Reviews-Hotel_Kyoto.html", again)

	reset, ok := PageURL(third, 1)
	require.True(t, ok)
	assert.Equal(t, base, reset)

	_, ok = PageURL("https://example.com/hotel/42", 2)
	assert.False(t, ok)
}

func TestHasNextPage(t *testing.T) {
	t.Parallel()

	assert.True(t, HasNextPage(reviewsHTML, 1))
	assert.False(t, HasNextPage(reviewsHTML, 2))
	assert.True(t, HasNextPage(`<a class="ui_button nav next" aria-label="Next page" href="#">Next</a>`, 4))
	assert.True(t, HasNextPage(`<a aria-label="次のページ" href="#">次へ</a>`, 4))
	assert.False(t, HasNextPage("", 1))
}
