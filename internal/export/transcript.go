package export

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jwulff/sentiscribe/internal/ledger"
)

// StopLine is appended when the loop stops.
const StopLine = "Stopping the system..."

// Transcript accumulates the lines shown to the user, in the same form they
// are saved by SaveText.
type Transcript struct {
	mu    sync.Mutex
	lines []string
}

// RecordLines renders one record the way it is shown to the user.
func RecordLines(r ledger.Record) []string {
	return []string{
		"You said: " + r.Text,
		"Sentiment: " + string(r.Sentiment),
		fmt.Sprintf("Polarity: %.2f, Subjectivity: %.2f", r.Polarity, r.Subjectivity),
		"",
	}
}

// AddRecord appends the lines for r.
func (t *Transcript) AddRecord(r ledger.Record) {
	t.Add(RecordLines(r)...)
}

// AddStop appends StopLine.
func (t *Transcript) AddStop() {
	t.Add(StopLine)
}

// Add appends raw lines.
func (t *Transcript) Add(lines ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, lines...)
}

// Lines returns a copy of the lines.
func (t *Transcript) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// Len returns the number of lines.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lines)
}

// Reset drops every line. The ledger is not touched.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = nil
}

// String joins the lines with newlines, ending with one.
func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.lines) == 0 {
		return ""
	}
	return strings.Join(t.lines, "\n") + "\n"
}
