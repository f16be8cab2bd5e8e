package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yclau/chemladder/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS players (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		answers_json TEXT NOT NULL,
		correct_count INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		percentage REAL NOT NULL,
		topics_json TEXT NOT NULL,
		level_reached INTEGER NOT NULL,
		final_reward INTEGER NOT NULL,
		terminal_reason TEXT NOT NULL,
		win INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_user ON attempts(user_id, created_at);

	CREATE TABLE IF NOT EXISTS credits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		reason_tag TEXT NOT NULL,
		level INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_credits_user ON credits(user_id, created_at);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		stem TEXT NOT NULL,
		choice_a TEXT NOT NULL,
		choice_b TEXT NOT NULL,
		choice_c TEXT NOT NULL,
		choice_d TEXT NOT NULL,
		correct TEXT NOT NULL,
		explanation TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetPlayer retrieves a player by their user ID.
func (s *SQLiteStore) GetPlayer(ctx context.Context, userID string) (*domain.Player, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM players WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var player domain.Player
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&player.UserID, &player.Username, &lastSeen, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan player row: %w", err)
	}

	player.LastSeenAt = time.Unix(lastSeen, 0)
	player.CreatedAt = time.Unix(createdAt, 0)
	player.UpdatedAt = time.Unix(updatedAt, 0)

	return &player, nil
}

// UpsertPlayer creates or updates a player record.
func (s *SQLiteStore) UpsertPlayer(ctx context.Context, player *domain.Player) error {
	query := `
	INSERT INTO players (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		player.UserID, player.Username,
		player.LastSeenAt.Unix(), player.CreatedAt.Unix(), player.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a player.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE players SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// SaveAttempt appends a finished session summary to the attempt history.
func (s *SQLiteStore) SaveAttempt(ctx context.Context, attempt *domain.Attempt) error {
	answersJSON, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	topicsJSON, err := json.Marshal(attempt.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}

	query := `
	INSERT INTO attempts (user_id, answers_json, correct_count, total_questions,
		percentage, topics_json, level_reached, final_reward, terminal_reason, win, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	win := 0
	if attempt.Win {
		win = 1
	}

	result, err := s.db.ExecContext(ctx, query,
		attempt.UserID, string(answersJSON), attempt.CorrectCount, attempt.TotalQuestions,
		attempt.Percentage, string(topicsJSON), attempt.LevelReached, attempt.FinalReward,
		string(attempt.TerminalReason), win, attempt.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		attempt.ID = id
	}
	return nil
}

// ListAttempts retrieves up to limit recent attempts for a player, newest first.
func (s *SQLiteStore) ListAttempts(ctx context.Context, userID string, limit int) ([]domain.Attempt, error) {
	query := `
		SELECT id, user_id, answers_json, correct_count, total_questions,
		       percentage, topics_json, level_reached, final_reward, terminal_reason, win, created_at
		FROM attempts WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close attempt rows", "error", closeErr)
		}
	}()

	var attempts []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		var answersJSON, topicsJSON, reason string
		var win int
		var createdAt int64

		if err := rows.Scan(
			&a.ID, &a.UserID, &answersJSON, &a.CorrectCount, &a.TotalQuestions,
			&a.Percentage, &topicsJSON, &a.LevelReached, &a.FinalReward, &reason, &win, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}

		if err := json.Unmarshal([]byte(answersJSON), &a.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		if err := json.Unmarshal([]byte(topicsJSON), &a.Topics); err != nil {
			return nil, fmt.Errorf("unmarshal topics: %w", err)
		}
		a.TerminalReason = domain.TerminalReason(reason)
		a.Win = win != 0
		a.CreatedAt = time.Unix(createdAt, 0)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt rows: %w", err)
	}

	return attempts, nil
}

// CreditTokens appends a credit entry to the token ledger.
func (s *SQLiteStore) CreditTokens(ctx context.Context, credit *domain.Credit) error {
	query := `
	INSERT INTO credits (user_id, amount, reason_tag, level, created_at)
	VALUES (?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		credit.UserID, credit.Amount, credit.ReasonTag, credit.Level, credit.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert credit: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		credit.ID = id
	}
	return nil
}

// Balance returns the sum of all ledger entries for a player.
func (s *SQLiteStore) Balance(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM credits WHERE user_id = ?`

	var balance int64
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

// ListCredits retrieves up to limit recent ledger entries for a player, newest first.
func (s *SQLiteStore) ListCredits(ctx context.Context, userID string, limit int) ([]domain.Credit, error) {
	query := `
		SELECT id, user_id, amount, reason_tag, level, created_at
		FROM credits WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query credits: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close credit rows", "error", closeErr)
		}
	}()

	var credits []domain.Credit
	for rows.Next() {
		var c domain.Credit
		var createdAt int64

		if err := rows.Scan(&c.ID, &c.UserID, &c.Amount, &c.ReasonTag, &c.Level, &createdAt); err != nil {
			return nil, fmt.Errorf("scan credit row: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0)
		credits = append(credits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit rows: %w", err)
	}

	return credits, nil
}

// CountQuestions returns the number of questions in the bank.
func (s *SQLiteStore) CountQuestions(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

// InsertQuestion adds a question to the bank.
func (s *SQLiteStore) InsertQuestion(ctx context.Context, q *domain.Question) error {
	query := `
	INSERT INTO questions (id, topic, stem, choice_a, choice_b, choice_c, choice_d, correct, explanation)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		q.ID, q.Topic, q.Stem,
		q.Choices[domain.OptionA], q.Choices[domain.OptionB],
		q.Choices[domain.OptionC], q.Choices[domain.OptionD],
		string(q.Correct), q.Explanation,
	)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// RandomQuestions draws n distinct questions from the bank in random order.
func (s *SQLiteStore) RandomQuestions(ctx context.Context, n int) ([]domain.Question, error) {
	query := `
		SELECT id, topic, stem, choice_a, choice_b, choice_c, choice_d, correct, explanation
		FROM questions ORDER BY RANDOM() LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close question rows", "error", closeErr)
		}
	}()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var a, b, c, d, correct string

		if err := rows.Scan(&q.ID, &q.Topic, &q.Stem, &a, &b, &c, &d, &correct, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}

		q.Choices = map[domain.Option]string{
			domain.OptionA: a,
			domain.OptionB: b,
			domain.OptionC: c,
			domain.OptionD: d,
		}
		q.Correct = domain.Option(strings.ToUpper(strings.TrimSpace(correct)))
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question rows: %w", err)
	}

	return questions, nil
}
