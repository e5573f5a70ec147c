package scraper

import (
	"kuchikomi/internal/review"
)

var registry = map[review.Source]Factory{}

// Register makes a harvester factory available for source.
func Register(source review.Source, f Factory) {
	registry[source] = f
}

// Get builds the harvester registered for source.
func Get(source review.Source, opts Options) (Harvester, bool) {
	f, ok := registry[source]
	if !ok {
		return nil, false
	}
	return f(opts), true
}
