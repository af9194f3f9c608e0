package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cyberguard/internal/common"
	"github.com/dmitrijs2005/cyberguard/internal/dbx"
	"github.com/dmitrijs2005/cyberguard/internal/server/models"
	"github.com/dmitrijs2005/cyberguard/internal/server/repositories/progress"
	"github.com/dmitrijs2005/cyberguard/internal/server/repositories/repomanager"
)

// ProgressService reads and mutates the caller's progress record. Every
// operation runs in one transaction that starts with progress.Ensure, so a
// missing record is created on first use.
type ProgressService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewProgressService(db *sql.DB, m repomanager.RepositoryManager) *ProgressService {
	return &ProgressService{db: db, repomanager: m, now: time.Now}
}

func (s *ProgressService) GetProgress(ctx context.Context, userID string) (*models.Progress, error) {
	return s.withProgress(ctx, userID, nil)
}

// RecordQuiz appends the score and bumps the completed counter. quizID and
// score are not checked against any catalogue.
func (s *ProgressService) RecordQuiz(ctx context.Context, userID, quizID string, score float64) (*models.Progress, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" {
		return nil, common.NewValidationError("quizId is required")
	}

	return s.withProgress(ctx, userID, func(ctx context.Context, repo progress.Repository, now time.Time) error {
		err := repo.AddQuizScore(ctx, userID, models.QuizScore{QuizID: quizID, Score: score, CompletedAt: now})
		if err != nil {
			return err
		}
		return repo.IncrementQuizzes(ctx, userID, now)
	})
}

// RecordFlashcard marks cardID reviewed. Only the first review of a card
// increments the counter; later ones refresh its review time.
func (s *ProgressService) RecordFlashcard(ctx context.Context, userID, cardID string) (*models.Progress, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, common.NewValidationError("cardId is required")
	}

	return s.withProgress(ctx, userID, func(ctx context.Context, repo progress.Repository, now time.Time) error {
		inserted, err := repo.UpsertFlashcard(ctx, userID, cardID, now)
		if err != nil {
			return err
		}
		if inserted {
			return repo.IncrementFlashcards(ctx, userID, now)
		}
		return repo.Touch(ctx, userID, now)
	})
}

func (s *ProgressService) withProgress(
	ctx context.Context,
	userID string,
	mutate func(ctx context.Context, repo progress.Repository, now time.Time) error,
) (*models.Progress, error) {
	var p *models.Progress

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Progress(tx)
		now := s.now().UTC()

		if err := repo.Ensure(ctx, userID, now); err != nil {
			return err
		}
		if mutate != nil {
			if err := mutate(ctx, repo, now); err != nil {
				return err
			}
		}

		var err error
		p, err = repo.Get(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error updating progress: %w", err)
	}

	return p, nil
}
