package questionbank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"quizreel/internal/config"
)

// Store manages question bank persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the bank database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	// Transactions must begin in immediate mode: Reserve reads candidates and
	// then writes inside one transaction, and a deferred transaction that
	// upgrades read->write under a concurrent writer (a sweep, a second CLI
	// process) gets an instant SQLITE_BUSY that bypasses busy_timeout. The
	// pragmas ride the DSN so every pooled connection gets them.
	dbPath := cfg.DatabasePath()
	dsn := "file:" + dbPath + "?" + strings.Join([]string{
		"_txlock=immediate",
		"_pragma=journal_mode(WAL)",
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
	}, "&")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping bank database: %w", err)
	}
	return nil
}

const questionColumns = "id, topic, difficulty, question, option_a, option_b, option_c, option_d, correct_answer, source, explanation, times_used, reserved_at, reservation_token, created_at"

func scanQuestion(scanner interface{ Scan(dest ...any) error }) (*Question, error) {
	var (
		id          int64
		topic       string
		difficulty  sql.NullInt64
		text        string
		optionA     string
		optionB     string
		optionC     sql.NullString
		optionD     sql.NullString
		correct     int
		source      sql.NullString
		explanation sql.NullString
		timesUsed   int
		reservedRaw sql.NullString
		token       sql.NullString
		createdRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&topic,
		&difficulty,
		&text,
		&optionA,
		&optionB,
		&optionC,
		&optionD,
		&correct,
		&source,
		&explanation,
		&timesUsed,
		&reservedRaw,
		&token,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	options := []string{optionA, optionB}
	if optionC.Valid && optionC.String != "" {
		options = append(options, optionC.String)
	}
	if optionD.Valid && optionD.String != "" {
		options = append(options, optionD.String)
	}

	question := &Question{
		ID:               id,
		Topic:            topic,
		Difficulty:       int(difficulty.Int64),
		Text:             text,
		Options:          options,
		CorrectIndex:     correct,
		Source:           source.String,
		Explanation:      explanation.String,
		TimesUsed:        timesUsed,
		ReservationToken: token.String,
	}

	if reservedRaw.Valid {
		if reserved, err := parseTimeString(reservedRaw.String); err == nil {
			question.ReservedAt = &reserved
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		question.CreatedAt = created
	}
	return question, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
