package review

import "unicode/utf8"

// MinTextLength is the shortest cleaned body accepted as a review.
const MinTextLength = 5

// Collector gates and dedups records for a single harvest call. It keeps every
// review it has seen so repeated passes over a growing DOM never re-emit one.
// Nodes with an ID are tracked by it: a re-read of the same node whose body has
// grown (a truncated card that was expanded) replaces the stored record. Nodes
// without an ID are deduplicated on their cleaned text.
type Collector struct {
	source  Source
	seen    map[string]int // text key -> record index
	ids     map[string]int // node ID -> record index
	records []Record
	skipped int
}

// NewCollector returns an empty collector for source.
func NewCollector(source Source) *Collector {
	return &Collector{source: source, seen: make(map[string]int), ids: make(map[string]int)}
}

// Add cleans raw and appends it unless it is too short or already seen. It
// reports true only when a new record was appended; replacing the record of a
// known node returns the updated record and false.
func (c *Collector) Add(raw RawRecord) (Record, bool) {
	text := CleanText(raw.Text)
	if utf8.RuneCountInString(text) < MinTextLength {
		return Record{}, false
	}
	key := dedupKey(text)

	if raw.ID != "" {
		if i, ok := c.ids[raw.ID]; ok {
			return c.replace(i, raw, text, key)
		}
	}
	if _, dup := c.seen[key]; dup {
		return Record{}, false
	}

	c.records = append(c.records, c.record(raw, text))
	i := len(c.records) - 1
	c.seen[key] = i
	if raw.ID != "" {
		c.ids[raw.ID] = i
	}
	return c.records[i], true
}

// replace updates record i when raw carries a longer body than the one stored.
func (c *Collector) replace(i int, raw RawRecord, text, key string) (Record, bool) {
	old := c.records[i]
	if utf8.RuneCountInString(text) <= utf8.RuneCountInString(old.Text) {
		return Record{}, false
	}
	if j, taken := c.seen[key]; taken && j != i {
		return Record{}, false
	}

	rec := c.record(raw, text)
	if rec.ReviewerName == "" {
		rec.ReviewerName = old.ReviewerName
	}
	if rec.Rating == 0 {
		rec.Rating = old.Rating
	}
	if rec.Date == "" {
		rec.Date = old.Date
	}
	if rec.Location == "" {
		rec.Location = old.Location
	}

	c.seen[key] = i
	c.records[i] = rec
	return rec, false
}

func (c *Collector) record(raw RawRecord, text string) Record {
	rating, ok := clampRating(raw.Rating)
	if !ok {
		rating = 0
	}
	return Record{
		Source:       c.source,
		ReviewerName: raw.ReviewerName,
		Rating:       rating,
		Date:         raw.Date,
		Text:         text,
		Location:     raw.Location,
	}
}

// AddAll feeds a parse pass into the collector and returns how many records were
// accepted and how many nodes failed extraction.
func (c *Collector) AddAll(results []Result) (added, failed int) {
	for _, r := range results {
		if !r.OK() {
			failed++
			continue
		}
		if _, ok := c.Add(r.Raw); ok {
			added++
		}
	}
	c.skipped += failed
	return added, failed
}

// Len is the number of accepted records.
func (c *Collector) Len() int { return len(c.records) }

// Skipped is the number of nodes that failed extraction across all passes.
func (c *Collector) Skipped() int { return c.skipped }

// Records returns a copy of the accepted records, trimmed to limit when limit > 0.
func (c *Collector) Records(limit int) []Record {
	n := len(c.records)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]Record, n)
	copy(out, c.records[:n])
	return out
}
