package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jwulff/sentiscribe/internal/ledger"
	"github.com/jwulff/sentiscribe/internal/sentiment"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		startedAt REAL NOT NULL,
		endedAt REAL NOT NULL,
		createdAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS utterances (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sessionId TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		sequenceNumber INTEGER NOT NULL,
		text TEXT NOT NULL,
		sentiment TEXT NOT NULL,
		polarity REAL NOT NULL,
		subjectivity REAL NOT NULL,
		timestamp REAL NOT NULL,
		UNIQUE(sessionId, sequenceNumber)
	);
`

// ErrEmptySession is returned when saving a session with no utterances.
var ErrEmptySession = errors.New("session has no utterances")

// Store provides access to a sentiscribe SQLite export.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path for writing and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// OpenReadOnly opens an existing export without write access.
func OpenReadOnly(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession writes records as a new session in one transaction and
// returns it.
func (s *Store) SaveSession(startedAt time.Time, records []ledger.Record) (*Session, error) {
	if len(records) == 0 {
		return nil, ErrEmptySession
	}

	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		StartedAt:  startedAt,
		EndedAt:    records[len(records)-1].Timestamp,
		Utterances: len(records),
		CreatedAt:  now,
	}
	if startedAt.IsZero() {
		sess.StartedAt = records[0].Timestamp
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO sessions (id, startedAt, endedAt, createdAt)
		VALUES (?, ?, ?, ?)
	`, sess.ID, unixFromTime(sess.StartedAt), unixFromTime(sess.EndedAt), unixFromTime(now)); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO utterances (sessionId, sequenceNumber, text, sentiment, polarity, subjectivity, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare utterance: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(sess.ID, i+1, r.Text, string(r.Sentiment),
			r.Polarity, r.Subjectivity, unixFromTime(r.Timestamp)); err != nil {
			return nil, fmt.Errorf("insert utterance %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return sess, nil
}

// LatestSession returns the most recently started session, or nil if there
// are none.
func (s *Store) LatestSession() (*Session, error) {
	row := s.db.QueryRow(`
		SELECT s.id, s.startedAt, s.endedAt, s.createdAt, COUNT(u.id)
		FROM sessions s
		LEFT JOIN utterances u ON u.sessionId = s.id
		GROUP BY s.id
		ORDER BY s.startedAt DESC
		LIMIT 1
	`)

	var sess Session
	var startedAt, endedAt, createdAt float64
	if err := row.Scan(&sess.ID, &startedAt, &endedAt, &createdAt, &sess.Utterances); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sess.StartedAt = timeFromUnix(startedAt)
	sess.EndedAt = timeFromUnix(endedAt)
	sess.CreatedAt = timeFromUnix(createdAt)
	return &sess, nil
}

// UtterancesForSession returns a session's utterances in capture order.
func (s *Store) UtterancesForSession(sessionID string) ([]Utterance, error) {
	rows, err := s.db.Query(`
		SELECT id, sessionId, sequenceNumber, text, sentiment, polarity, subjectivity, timestamp
		FROM utterances
		WHERE sessionId = ?
		ORDER BY sequenceNumber ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query utterances: %w", err)
	}
	defer rows.Close()

	var out []Utterance
	for rows.Next() {
		var u Utterance
		var label string
		var ts float64
		if err := rows.Scan(&u.ID, &u.SessionID, &u.SequenceNumber, &u.Text,
			&label, &u.Polarity, &u.Subjectivity, &ts); err != nil {
			return nil, fmt.Errorf("scan utterance: %w", err)
		}
		u.Sentiment = sentiment.Label(label)
		u.Timestamp = timeFromUnix(ts)
		out = append(out, u)
	}
	return out, rows.Err()
}

// Tally counts a session's utterances per sentiment. Every label is present,
// zero when unseen.
func (s *Store) Tally(sessionID string) (ledger.Counts, error) {
	rows, err := s.db.Query(`
		SELECT sentiment, COUNT(*)
		FROM utterances
		WHERE sessionId = ?
		GROUP BY sentiment
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query tally: %w", err)
	}
	defer rows.Close()

	counts := ledger.Counts{}
	for _, l := range sentiment.Labels {
		counts[l] = 0
	}
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		counts[sentiment.Label(label)] = n
	}
	return counts, rows.Err()
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
