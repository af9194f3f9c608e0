package progress

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cyberguard/internal/server/models"
)

// Repository is the progress store. Ensure is the get-or-create primitive:
// every mutating path calls it first so a missing record is created lazily.
type Repository interface {
	Ensure(ctx context.Context, userID string, now time.Time) error
	Touch(ctx context.Context, userID string, now time.Time) error
	Get(ctx context.Context, userID string) (*models.Progress, error)
	AddQuizScore(ctx context.Context, userID string, score models.QuizScore) error
	IncrementQuizzes(ctx context.Context, userID string, now time.Time) error
	UpsertFlashcard(ctx context.Context, userID, cardID string, now time.Time) (bool, error)
	IncrementFlashcards(ctx context.Context, userID string, now time.Time) error
}
