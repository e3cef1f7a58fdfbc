package questionbank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
)

// reserveWindowFactor sizes the candidate window relative to the requested
// batch so topic diversity has room to work without scanning the whole bank.
const reserveWindowFactor = 8

// reserveAttempts bounds retries when a concurrent reserver claims a
// candidate between selection and the guarded update.
const reserveAttempts = 3

// Reserve atomically claims a batch of eligible questions for one job.
//
// Eligible rows are unreserved and below the usage cap. Selection prefers the
// lowest times_used values, breaking ties randomly so repeated runs do not
// replay the same ordering. When the policy asks for distinct topics and the
// eligible pool is too thin to honour it, the constraint is relaxed and the
// affected topics are reported on the returned batch rather than dropped
// silently. Fails with ErrInsufficientSupply when fewer than policy.Count
// eligible rows exist.
func (s *Store) Reserve(ctx context.Context, policy ReservePolicy) (*Batch, error) {
	if policy.Count <= 0 {
		return nil, fmt.Errorf("reserve: count must be positive, got %d", policy.Count)
	}
	if policy.UsageCap <= 0 {
		return nil, fmt.Errorf("reserve: usage cap must be positive, got %d", policy.UsageCap)
	}

	if policy.MaxAge > 0 {
		if _, err := s.SweepStaleReservations(ctx, policy.MaxAge); err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		batch, err := s.reserveOnce(ctx, policy)
		if err == nil {
			return batch, nil
		}
		if !isReserveConflict(err) && !isBusy(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("reserve: gave up after %d conflicting attempts: %w", reserveAttempts, lastErr)
}

type reserveConflictError struct{ affected, wanted int }

func (e *reserveConflictError) Error() string {
	return fmt.Sprintf("reservation conflict: claimed %d of %d rows", e.affected, e.wanted)
}

func isReserveConflict(err error) bool {
	var conflict *reserveConflictError
	return errors.As(err, &conflict)
}

// sqliteBusy is the SQLITE_BUSY result code: another connection holds the
// write lock past busy_timeout. Worth another attempt, not a hard failure.
const sqliteBusy = 5

func isBusy(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqliteBusy
}

func (s *Store) reserveOnce(ctx context.Context, policy ReservePolicy) (*Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reserve tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + questionColumns + ` FROM question_bank
        WHERE reserved_at IS NULL AND times_used < ?`
	args := []any{policy.UsageCap}
	if policy.Topic != "" {
		query += ` AND topic = ?`
		args = append(args, policy.Topic)
	}
	query += ` ORDER BY times_used ASC, RANDOM() LIMIT ?`
	args = append(args, policy.Count*reserveWindowFactor)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query eligible questions: %w", err)
	}
	candidates := make([]Question, 0, policy.Count)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		candidates = append(candidates, *question)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(candidates) < policy.Count {
		return nil, fmt.Errorf("%w: need %d, have %d eligible", ErrInsufficientSupply, policy.Count, len(candidates))
	}

	chosen, relaxedTopics := pickBatch(candidates, policy)

	token := uuid.NewString()
	reservedAt := time.Now().UTC()

	ids := make([]int64, len(chosen))
	updateArgs := make([]any, 0, len(chosen)+2)
	updateArgs = append(updateArgs, formatTime(reservedAt), token)
	for i, q := range chosen {
		ids[i] = q.ID
		updateArgs = append(updateArgs, q.ID)
	}
	res, err := tx.ExecContext(
		ctx,
		`UPDATE question_bank SET reserved_at = ?, reservation_token = ?
         WHERE id IN (`+makePlaceholders(len(ids))+`) AND reserved_at IS NULL`,
		updateArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("mark reserved: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if int(affected) != len(ids) {
		return nil, &reserveConflictError{affected: int(affected), wanted: len(ids)}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reserve tx: %w", err)
	}

	for i := range chosen {
		at := reservedAt
		chosen[i].ReservedAt = &at
		chosen[i].ReservationToken = token
	}
	return &Batch{
		Token:         token,
		ReservedAt:    reservedAt,
		Questions:     chosen,
		RelaxedTopics: relaxedTopics,
	}, nil
}

// pickBatch selects policy.Count questions from the usage-ordered candidate
// window, honouring topic diversity first and filling from repeats only when
// the window cannot otherwise satisfy the count.
func pickBatch(candidates []Question, policy ReservePolicy) ([]Question, []string) {
	chosen := make([]Question, 0, policy.Count)

	if !policy.DistinctTopics || policy.Topic != "" {
		chosen = append(chosen, candidates[:policy.Count]...)
		return chosen, nil
	}

	seenTopics := make(map[string]struct{}, policy.Count)
	var skipped []Question
	for _, candidate := range candidates {
		if len(chosen) == policy.Count {
			break
		}
		if _, dup := seenTopics[candidate.Topic]; dup {
			skipped = append(skipped, candidate)
			continue
		}
		seenTopics[candidate.Topic] = struct{}{}
		chosen = append(chosen, candidate)
	}

	var relaxed []string
	relaxedSet := make(map[string]struct{})
	for _, candidate := range skipped {
		if len(chosen) == policy.Count {
			break
		}
		chosen = append(chosen, candidate)
		if _, dup := relaxedSet[candidate.Topic]; !dup {
			relaxedSet[candidate.Topic] = struct{}{}
			relaxed = append(relaxed, candidate.Topic)
		}
	}
	return chosen, relaxed
}

// Commit marks every member of the batch used and clears its reservation.
// Committing an already-committed (or released) batch matches zero rows and
// is a no-op, which tolerates retried commits after a crash between the
// increment and its acknowledgment. Returns the number of rows updated.
func (s *Store) Commit(ctx context.Context, batch *Batch) (int64, error) {
	if batch == nil || batch.Token == "" {
		return 0, nil
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE question_bank
         SET times_used = times_used + 1, reserved_at = NULL, reservation_token = NULL
         WHERE reservation_token = ?`,
		batch.Token,
	)
	if err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return res.RowsAffected()
}

// Release returns the batch to the eligible pool without marking it used.
// Idempotent for the same reason Commit is. Returns the number of rows updated.
func (s *Store) Release(ctx context.Context, batch *Batch) (int64, error) {
	if batch == nil || batch.Token == "" {
		return 0, nil
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE question_bank
         SET reserved_at = NULL, reservation_token = NULL
         WHERE reservation_token = ?`,
		batch.Token,
	)
	if err != nil {
		return 0, fmt.Errorf("release batch: %w", err)
	}
	return res.RowsAffected()
}

// SweepStaleReservations releases every reservation strictly older than
// maxAge, recovering questions stranded by a crashed run. Reservations
// younger than maxAge are left untouched.
func (s *Store) SweepStaleReservations(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, fmt.Errorf("sweep: max age must be positive, got %s", maxAge)
	}
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE question_bank
         SET reserved_at = NULL, reservation_token = NULL
         WHERE reserved_at IS NOT NULL AND reserved_at < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("sweep stale reservations: %w", err)
	}
	return res.RowsAffected()
}
