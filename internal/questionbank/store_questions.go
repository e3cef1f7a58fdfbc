package questionbank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizreel/internal/textutil"
)

// Add validates and inserts a new question, rejecting exact duplicates of
// already-stored text. Returns the assigned identifier.
func (s *Store) Add(ctx context.Context, q Question) (int64, error) {
	q.Text = textutil.CollapseWhitespace(q.Text)
	q.Topic = strings.TrimSpace(q.Topic)
	if q.Topic == "" {
		q.Topic = "General"
	}
	if q.Difficulty < 1 {
		q.Difficulty = 1
	}
	if q.Difficulty > 5 {
		q.Difficulty = 5
	}
	if err := q.Validate(); err != nil {
		return 0, err
	}

	var optionC, optionD string
	if len(q.Options) > 2 {
		optionC = strings.TrimSpace(q.Options[2])
	}
	if len(q.Options) > 3 {
		optionD = strings.TrimSpace(q.Options[3])
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO question_bank (
            topic, difficulty, question, question_norm,
            option_a, option_b, option_c, option_d,
            correct_answer, source, explanation, times_used, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		q.Topic,
		q.Difficulty,
		q.Text,
		textutil.NormalizeQuestion(q.Text),
		strings.TrimSpace(q.Options[0]),
		strings.TrimSpace(q.Options[1]),
		nullableString(optionC),
		nullableString(optionD),
		q.CorrectIndex,
		nullableString(strings.TrimSpace(q.Source)),
		nullableString(strings.TrimSpace(q.Explanation)),
		formatTime(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %q", ErrDuplicate, q.Text)
		}
		return 0, fmt.Errorf("insert question: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetByID fetches a question by identifier, returning nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM question_bank WHERE id = ?`, id)
	question, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return question, nil
}

// PoolStats returns aggregate pool counts for the given usage cap.
func (s *Store) PoolStats(ctx context.Context, usageCap int) (PoolStats, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT
            COUNT(1),
            COALESCE(SUM(CASE WHEN reserved_at IS NULL AND times_used < ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN reserved_at IS NOT NULL THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN reserved_at IS NULL AND times_used >= ? THEN 1 ELSE 0 END), 0)
        FROM question_bank`,
		usageCap,
		usageCap,
	)
	var stats PoolStats
	if err := row.Scan(&stats.Total, &stats.Eligible, &stats.Reserved, &stats.Retired); err != nil {
		return PoolStats{}, fmt.Errorf("pool stats: %w", err)
	}
	return stats, nil
}

// TopicStats returns per-topic totals ordered by topic name.
func (s *Store) TopicStats(ctx context.Context, usageCap int) ([]TopicCount, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT topic,
            COUNT(1),
            COALESCE(SUM(CASE WHEN reserved_at IS NULL AND times_used < ? THEN 1 ELSE 0 END), 0)
        FROM question_bank GROUP BY topic ORDER BY topic`,
		usageCap,
	)
	if err != nil {
		return nil, fmt.Errorf("topic stats: %w", err)
	}
	defer rows.Close()

	var counts []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Total, &tc.Eligible); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: question_bank.question_norm")
}
