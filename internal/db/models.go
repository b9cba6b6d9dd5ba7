// Package db stores exported listening sessions in SQLite.
package db

import (
	"time"

	"github.com/jwulff/sentiscribe/internal/ledger"
	"github.com/jwulff/sentiscribe/internal/sentiment"
)

// Session represents one exported listening session.
type Session struct {
	ID         string
	StartedAt  time.Time
	EndedAt    time.Time
	Utterances int
	CreatedAt  time.Time
}

// Utterance represents one classified utterance within a session.
type Utterance struct {
	ID             int64
	SessionID      string
	SequenceNumber int
	Text           string
	Sentiment      sentiment.Label
	Polarity       float64
	Subjectivity   float64
	Timestamp      time.Time
}

// Record converts the row back into a ledger record.
func (u Utterance) Record() ledger.Record {
	return ledger.Record{
		Text:         u.Text,
		Sentiment:    u.Sentiment,
		Polarity:     u.Polarity,
		Subjectivity: u.Subjectivity,
		Timestamp:    u.Timestamp,
	}
}
