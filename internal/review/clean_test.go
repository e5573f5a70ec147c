package review_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kuchikomi/internal/review"
)

func TestCleanText_TruncatesAtMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"meal type", "おいしかった\n食事の種類: ディナー\n1 人あたりの料金: ￥2,000～3,000", "おいしかった"},
		{"price per person", "雰囲気が良い  1人あたりの料金 ￥1,000", "雰囲気が良い"},
		{"sub score", "また来ます。食事: 5 サービス: 4", "また来ます。"},
		{"full-width colon", "店員さんが親切。サービス：5", "店員さんが親切。"},
		{"ambience", "静かで落ち着く 雰囲気: 4", "静かで落ち着く"},
		{"reservation", "ランチで利用\n予約\n不要", "ランチで利用"},
		{"party size", "家族で訪問 グループの人数 4 人", "家族で訪問"},
		{"earliest marker wins", "最高 グループの人数 2 食事の種類 ランチ", "最高"},
		{"no marker", "  普通に美味しい  ", "普通に美味しい"},
		{"sub score word without digit", "食事: とても良い", "食事: とても良い"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, review.CleanText(tt.raw))
		})
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"おいしかった\n食事の種類: ディナー\n...",
		"  spaced out  \n\t",
		"予約\n予約\n",
		"1 人あたりの料金 1 人あたりの料金",
		"text 雰囲気：3 食事：4",
		"plain",
		"",
		"\n",
	}

	for _, in := range inputs {
		once := review.CleanText(in)
		assert.Equal(t, once, review.CleanText(once), "input %q", in)
	}
}
