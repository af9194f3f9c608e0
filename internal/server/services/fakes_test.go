package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cyberguard/internal/common"
	"github.com/dmitrijs2005/cyberguard/internal/dbx"
	"github.com/dmitrijs2005/cyberguard/internal/server/models"
	"github.com/dmitrijs2005/cyberguard/internal/server/repositories/progress"
	"github.com/dmitrijs2005/cyberguard/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/cyberguard/internal/server/repositories/users"
	"github.com/google/uuid"
)

// memStore backs the fake repositories. Transactions are expected on the
// sqlmock side only, so writes are visible immediately.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	progress map[string]*models.Progress
	revoked  map[string]models.RevokedToken

	// errs forces a method of the fake repositories to fail.
	errs map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		progress: map[string]*models.Progress{},
		revoked:  map[string]models.RevokedToken{},
		errs:     map[string]error{},
	}
}

func (s *memStore) fail(method string) error { return s.errs[method] }

type fakeUsersRepo struct{ st *memStore }

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if err := r.st.fail("Users.Create"); err != nil {
		return nil, err
	}
	for _, existing := range r.st.users {
		if existing.Email == u.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	r.st.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeUsersRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if err := r.st.fail("Users.GetUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.st.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if err := r.st.fail("Users.GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := r.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

type fakeProgressRepo struct{ st *memStore }

func (r *fakeProgressRepo) Ensure(_ context.Context, userID string, now time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if err := r.st.fail("Progress.Ensure"); err != nil {
		return err
	}
	if _, ok := r.st.progress[userID]; !ok {
		r.st.progress[userID] = &models.Progress{
			UserID:             userID,
			QuizScores:         []models.QuizScore{},
			ReviewedFlashcards: []models.ReviewedFlashcard{},
			LastActive:         now,
		}
	}
	return nil
}

func (r *fakeProgressRepo) Touch(ctx context.Context, userID string, now time.Time) error {
	if err := r.st.fail("Progress.Touch"); err != nil {
		return err
	}
	if err := r.Ensure(ctx, userID, now); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.progress[userID].LastActive = now
	return nil
}

func (r *fakeProgressRepo) Get(_ context.Context, userID string) (*models.Progress, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if err := r.st.fail("Progress.Get"); err != nil {
		return nil, err
	}
	p, ok := r.st.progress[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *p
	out.QuizScores = append([]models.QuizScore{}, p.QuizScores...)
	out.ReviewedFlashcards = append([]models.ReviewedFlashcard{}, p.ReviewedFlashcards...)
	return &out, nil
}

func (r *fakeProgressRepo) AddQuizScore(_ context.Context, userID string, score models.QuizScore) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if err := r.st.fail("Progress.AddQuizScore"); err != nil {
		return err
	}
	p, ok := r.st.progress[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.QuizScores = append(p.QuizScores, score)
	return nil
}

func (r *fakeProgressRepo) IncrementQuizzes(_ context.Context, userID string, now time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.progress[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.QuizzesCompleted++
	p.LastActive = now
	return nil
}

func (r *fakeProgressRepo) UpsertFlashcard(_ context.Context, userID, cardID string, now time.Time) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if err := r.st.fail("Progress.UpsertFlashcard"); err != nil {
		return false, err
	}
	p, ok := r.st.progress[userID]
	if !ok {
		return false, common.ErrorNotFound
	}
	for i := range p.ReviewedFlashcards {
		if p.ReviewedFlashcards[i].CardID == cardID {
			p.ReviewedFlashcards[i].LastReviewed = now
			return false, nil
		}
	}
	p.ReviewedFlashcards = append(p.ReviewedFlashcards, models.ReviewedFlashcard{CardID: cardID, LastReviewed: now})
	return true, nil
}

func (r *fakeProgressRepo) IncrementFlashcards(_ context.Context, userID string, now time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.progress[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.FlashcardsReviewed++
	p.LastActive = now
	return nil
}

type fakeRevokedRepo struct{ st *memStore }

func (r *fakeRevokedRepo) Create(_ context.Context, t models.RevokedToken) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if err := r.st.fail("RevokedTokens.Create"); err != nil {
		return err
	}
	r.st.revoked[t.TokenID] = t
	return nil
}

func (r *fakeRevokedRepo) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if err := r.st.fail("RevokedTokens.IsRevoked"); err != nil {
		return false, err
	}
	_, ok := r.st.revoked[tokenID]
	return ok, nil
}

func (r *fakeRevokedRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var n int64
	for id, t := range r.st.revoked {
		if !t.ExpiresAt.After(now) {
			delete(r.st.revoked, id)
			n++
		}
	}
	return n, nil
}

type fakeRepoManager struct{ st *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository               { return &fakeUsersRepo{m.st} }
func (m *fakeRepoManager) Progress(dbx.DBTX) progress.Repository         { return &fakeProgressRepo{m.st} }
func (m *fakeRepoManager) RevokedTokens(dbx.DBTX) revokedtokens.Repository {
	return &fakeRevokedRepo{m.st}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// expectCommits queues n successful transactions.
func expectCommits(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

var testUser = models.User{ID: "u1", Name: "Test", Email: "test@example.com"}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current time and moves the clock one second forward.
func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}

func sortedEmails(st *memStore) []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]string, 0, len(st.users))
	for _, u := range st.users {
		out = append(out, u.Email)
	}
	sort.Strings(out)
	return out
}
