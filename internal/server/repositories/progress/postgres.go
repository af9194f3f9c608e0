// Package progress provides the PostgreSQL-backed per-user progress store.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cyberguard/internal/common"
	"github.com/dmitrijs2005/cyberguard/internal/dbx"
	"github.com/dmitrijs2005/cyberguard/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgForeignKeyViolation = "23503"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// upsertError maps a foreign key violation (the user row is gone) to
// common.ErrorNotFound.
func upsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

// Ensure creates an empty progress record for userID unless one exists.
// A userID without a user row yields common.ErrorNotFound.
func (r *PostgresRepository) Ensure(ctx context.Context, userID string, now time.Time) error {
	query := `
		INSERT INTO progress (user_id, last_active)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, now); err != nil {
		return upsertError(err)
	}
	return nil
}

// Touch sets last_active, creating the record if needed.
func (r *PostgresRepository) Touch(ctx context.Context, userID string, now time.Time) error {
	query := `
		INSERT INTO progress (user_id, last_active)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET last_active = EXCLUDED.last_active
	`
	if _, err := r.db.ExecContext(ctx, query, userID, now); err != nil {
		return upsertError(err)
	}
	return nil
}

// Get loads the progress record with its quiz log (in insertion order) and
// reviewed cards (in first-review order). A missing record yields
// common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Progress, error) {
	query := `
		SELECT user_id, quizzes_completed, flashcards_reviewed, streak, last_active
		FROM progress
		WHERE user_id = $1
	`
	p := &models.Progress{
		QuizScores:         []models.QuizScore{},
		ReviewedFlashcards: []models.ReviewedFlashcard{},
	}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&p.UserID, &p.QuizzesCompleted, &p.FlashcardsReviewed, &p.Streak, &p.LastActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if p.QuizScores, err = r.quizScores(ctx, userID); err != nil {
		return nil, err
	}
	if p.ReviewedFlashcards, err = r.reviewedFlashcards(ctx, userID); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *PostgresRepository) quizScores(ctx context.Context, userID string) ([]models.QuizScore, error) {
	query := `
		SELECT quiz_id, score, completed_at
		FROM quiz_scores
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	scores := []models.QuizScore{}
	for rows.Next() {
		var s models.QuizScore
		if err := rows.Scan(&s.QuizID, &s.Score, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scores, nil
}

func (r *PostgresRepository) reviewedFlashcards(ctx context.Context, userID string) ([]models.ReviewedFlashcard, error) {
	query := `
		SELECT card_id, last_reviewed
		FROM reviewed_flashcards
		WHERE user_id = $1
		ORDER BY first_reviewed, card_id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	cards := []models.ReviewedFlashcard{}
	for rows.Next() {
		var c models.ReviewedFlashcard
		if err := rows.Scan(&c.CardID, &c.LastReviewed); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cards, nil
}

// AddQuizScore appends one entry to the quiz log.
func (r *PostgresRepository) AddQuizScore(ctx context.Context, userID string, score models.QuizScore) error {
	query := `
		INSERT INTO quiz_scores (user_id, quiz_id, score, completed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, score.QuizID, score.Score, score.CompletedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IncrementQuizzes(ctx context.Context, userID string, now time.Time) error {
	query := `
		UPDATE progress
		SET quizzes_completed = quizzes_completed + 1, last_active = $2
		WHERE user_id = $1
	`
	return r.execOne(ctx, query, userID, now)
}

// UpsertFlashcard records a review of cardID in a single statement and
// reports whether the card was reviewed for the first time. The
// (user_id, card_id) key makes concurrent first reviews of the same card
// resolve to one insert and one update.
func (r *PostgresRepository) UpsertFlashcard(ctx context.Context, userID, cardID string, now time.Time) (bool, error) {
	query := `
		INSERT INTO reviewed_flashcards (user_id, card_id, first_reviewed, last_reviewed)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id, card_id) DO UPDATE SET last_reviewed = EXCLUDED.last_reviewed
		RETURNING (xmax = 0) AS inserted
	`
	var inserted bool
	if err := r.db.QueryRowContext(ctx, query, userID, cardID, now).Scan(&inserted); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return inserted, nil
}

func (r *PostgresRepository) IncrementFlashcards(ctx context.Context, userID string, now time.Time) error {
	query := `
		UPDATE progress
		SET flashcards_reviewed = flashcards_reviewed + 1, last_active = $2
		WHERE user_id = $1
	`
	return r.execOne(ctx, query, userID, now)
}

// execOne runs an UPDATE that must hit exactly the user's record.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
