package db

import (
	"fmt"
	"os"
	"testing"
)

// TestLiveExport reads back a real export named by SENTISCRIBE_EXPORT_DB.
// Skipped if the variable is unset.
func TestLiveExport(t *testing.T) {
	dbPath := os.Getenv("SENTISCRIBE_EXPORT_DB")
	if dbPath == "" {
		t.Skip("SENTISCRIBE_EXPORT_DB not set")
	}

	store, err := OpenReadOnly(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	sess, err := store.LatestSession()
	if err != nil {
		t.Fatalf("LatestSession: %v", err)
	}
	if sess == nil {
		fmt.Println("No sessions in database")
		return
	}

	fmt.Printf("Latest session: id=%s started=%s utterances=%d\n",
		sess.ID, sess.StartedAt.Format("2006-01-02 15:04:05"), sess.Utterances)

	utterances, err := store.UtterancesForSession(sess.ID)
	if err != nil {
		t.Fatalf("UtterancesForSession: %v", err)
	}
	for _, u := range utterances {
		fmt.Printf("  %d. [%s %.2f] %s\n", u.SequenceNumber, u.Sentiment, u.Polarity, u.Text)
	}

	counts, err := store.Tally(sess.ID)
	if err != nil {
		t.Fatalf("Tally: %v", err)
	}
	if counts.Total() != len(utterances) {
		t.Errorf("tally total = %d, want %d", counts.Total(), len(utterances))
	}
}
