// Package ledger keeps the in-memory session: an append-only log of
// classified utterances and a per-label tally derived from it.
package ledger

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jwulff/sentiscribe/internal/sentiment"
)

// TimestampLayout is how record timestamps are written in exports.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrInvalidRecord is returned by Append for records that would break the
// ledger invariants.
var ErrInvalidRecord = errors.New("invalid record")

// Record is one classified utterance.
type Record struct {
	Text         string
	Sentiment    sentiment.Label
	Polarity     float64
	Subjectivity float64
	Timestamp    time.Time
}

// NewRecord builds a record from a classification captured at ts.
func NewRecord(text string, c sentiment.Classification, ts time.Time) Record {
	return Record{
		Text:         text,
		Sentiment:    c.Label,
		Polarity:     c.Polarity,
		Subjectivity: c.Subjectivity,
		Timestamp:    ts.Truncate(time.Second),
	}
}

// Fields returns the record as tabular fields in export column order.
func (r Record) Fields() []string {
	return []string{
		r.Text,
		string(r.Sentiment),
		strconv.FormatFloat(r.Polarity, 'f', -1, 64),
		strconv.FormatFloat(r.Subjectivity, 'f', -1, 64),
		r.Timestamp.Format(TimestampLayout),
	}
}

func (r Record) validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidRecord)
	}
	if !r.Sentiment.Valid() {
		return fmt.Errorf("%w: label %q", ErrInvalidRecord, r.Sentiment)
	}
	if want := sentiment.LabelFor(r.Polarity); r.Sentiment != want {
		return fmt.Errorf("%w: label %s does not match polarity %v", ErrInvalidRecord, r.Sentiment, r.Polarity)
	}
	return nil
}

// Counts maps each recordable label to its count.
type Counts map[sentiment.Label]int

// Total returns the sum of all counts.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

func zeroCounts() Counts {
	c := make(Counts, len(sentiment.Labels))
	for _, l := range sentiment.Labels {
		c[l] = 0
	}
	return c
}

// Ledger is safe for one writer and any number of concurrent readers.
// Records and tally change under a single lock, so readers never observe
// one without the other.
type Ledger struct {
	mu        sync.RWMutex
	records   []Record
	tally     Counts
	startedAt time.Time
	now       func() time.Time
}

// New returns an empty ledger.
func New() *Ledger {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Ledger {
	return &Ledger{
		tally:     zeroCounts(),
		startedAt: now(),
		now:       now,
	}
}

// Append adds a record and bumps its label's count.
func (l *Ledger) Append(r Record) error {
	if err := r.validate(); err != nil {
		return err
	}
	r.Timestamp = r.Timestamp.Truncate(time.Second)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
	l.tally[r.Sentiment]++
	return nil
}

// Clear drops every record and zeroes the tally.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.tally = zeroCounts()
	l.startedAt = l.now()
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// StartedAt returns when the current session began (creation or last Clear).
func (l *Ledger) StartedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.startedAt
}

// Records returns a copy of the records in insertion order.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Rows returns a restartable sequence over the records present at call time.
// Records appended later are not included.
func (l *Ledger) Rows() iter.Seq[Record] {
	l.mu.RLock()
	// Records are never mutated in place, so a capped slice header is a
	// stable snapshot even if Append grows the backing array later.
	snap := l.records[:len(l.records):len(l.records)]
	l.mu.RUnlock()

	return func(yield func(Record) bool) {
		for _, r := range snap {
			if !yield(r) {
				return
			}
		}
	}
}

// TrendCounts returns the tally for all three labels, zeros included.
func (l *Ledger) TrendCounts() Counts {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := zeroCounts()
	for k, v := range l.tally {
		out[k] = v
	}
	return out
}

// Recount derives counts from the records themselves.
func (l *Ledger) Recount() Counts {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := zeroCounts()
	for _, r := range l.records {
		out[r.Sentiment]++
	}
	return out
}
