package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no entry has the requested ID
var ErrNotFound = errors.New("entry not found")

// Entry is one captured question and, once generated, its answer
type Entry struct {
	ID        string
	SessionID string
	Question  string
	AskedAt   time.Time

	Answer     string
	Backend    string
	AnswerErr  string
	AnsweredAt time.Time
}

// Answered reports whether an answer has been stored
func (e *Entry) Answered() bool {
	return !e.AnsweredAt.IsZero() && e.AnswerErr == ""
}

// Filter defines criteria for listing entries
type Filter struct {
	SessionID string
	Since     time.Time
	Contains  string
	Limit     int
	Offset    int
}

// Stats summarizes the question log
type Stats struct {
	Questions int
	Answered  int
	Failed    int
	Sessions  int
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Path: filepath.Join(home, ".souffleur", "questions.db"),
	}
}

// SQLiteStore persists the question log in SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the question log
func Open(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		cfg = DefaultConfig()
	}

	dsn := ":memory:"
	if cfg.Path != ":memory:" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = cfg.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases alive and serializes writes
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL DEFAULT '',
		question TEXT NOT NULL,
		asked_at INTEGER NOT NULL,
		answer TEXT NOT NULL DEFAULT '',
		backend TEXT NOT NULL DEFAULT '',
		answer_error TEXT NOT NULL DEFAULT '',
		answered_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_questions_asked_at ON questions(asked_at DESC);
	CREATE INDEX IF NOT EXISTS idx_questions_session ON questions(session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveQuestion records a new question. A missing ID or time is filled in.
func (s *SQLiteStore) SaveQuestion(ctx context.Context, e *Entry) error {
	if strings.TrimSpace(e.Question) == "" {
		return fmt.Errorf("question text is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.AskedAt.IsZero() {
		e.AskedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (id, session_id, question, asked_at)
		VALUES (?, ?, ?, ?)
	`, e.ID, e.SessionID, e.Question, toMillis(e.AskedAt))
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}

	return nil
}

// SaveAnswer attaches an answer to a stored question
func (s *SQLiteStore) SaveAnswer(ctx context.Context, id, answer, backend string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	return s.update(ctx, `
		UPDATE questions SET answer = ?, backend = ?, answer_error = '', answered_at = ?
		WHERE id = ?
	`, answer, backend, toMillis(at), id)
}

// SaveAnswerError records that answering a question failed
func (s *SQLiteStore) SaveAnswerError(ctx context.Context, id, backend string, answerErr error, at time.Time) error {
	msg := "unknown error"
	if answerErr != nil {
		msg = answerErr.Error()
	}
	if at.IsZero() {
		at = time.Now()
	}
	return s.update(ctx, `
		UPDATE questions SET backend = ?, answer_error = ?, answered_at = ?
		WHERE id = ?
	`, backend, msg, toMillis(at), id)
}

func (s *SQLiteStore) update(ctx context.Context, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectColumns = `SELECT id, session_id, question, asked_at, answer, backend, answer_error, answered_at FROM questions`

// Get returns the entry with the given ID
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return e, nil
}

// List returns entries matching the filter, newest first
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + ` WHERE 1=1`
	var args []any

	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if !filter.Since.IsZero() {
		query += ` AND asked_at >= ?`
		args = append(args, toMillis(filter.Since))
	}
	if filter.Contains != "" {
		query += ` AND question LIKE ?`
		args = append(args, "%"+filter.Contains+"%")
	}

	query += ` ORDER BY asked_at DESC, rowid DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Stats summarizes the stored questions
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN answered_at > 0 AND answer_error = '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN answer_error != '' THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT NULLIF(session_id, ''))
		FROM questions
	`).Scan(&st.Questions, &st.Answered, &st.Failed, &st.Sessions)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	return st, nil
}

// Prune removes entries asked before the cutoff
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE asked_at < ?`, toMillis(before))
	if err != nil {
		return 0, fmt.Errorf("failed to prune questions: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var askedAt, answeredAt int64
	if err := row.Scan(&e.ID, &e.SessionID, &e.Question, &askedAt,
		&e.Answer, &e.Backend, &e.AnswerErr, &answeredAt); err != nil {
		return nil, err
	}
	e.AskedAt = fromMillis(askedAt)
	e.AnsweredAt = fromMillis(answeredAt)
	return &e, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
