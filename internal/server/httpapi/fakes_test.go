package httpapi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cyberguard/internal/common"
	"github.com/dmitrijs2005/cyberguard/internal/server/auth"
	"github.com/dmitrijs2005/cyberguard/internal/server/models"
	"github.com/dmitrijs2005/cyberguard/internal/server/services"
)

// fakeAuth issues tokens of the form "tok-<userID>".
type fakeAuth struct {
	mu        sync.Mutex
	users     map[string]*models.User // by email
	passwords map[string]string       // by email
	loggedOut []string
	logoutErr error
	authErr   error
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]*models.User{}, passwords: map[string]string{}}
}

func (f *fakeAuth) Register(_ context.Context, name, email, password string) (*services.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" || email == "" {
		return nil, common.NewValidationError("Name and email are required")
	}
	if len(password) < common.MinPasswordLength {
		return nil, common.ErrWeakPassword
	}
	if _, ok := f.users[email]; ok {
		return nil, common.ErrDuplicateEmail
	}
	u := &models.User{ID: "id-" + strings.SplitN(email, "@", 2)[0], Name: name, Email: email, PasswordHash: "hash"}
	f.users[email] = u
	f.passwords[email] = password
	return f.session(u), nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*services.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok || f.passwords[email] != password {
		return nil, common.ErrInvalidCredentials
	}
	return f.session(u), nil
}

func (f *fakeAuth) session(u *models.User) *services.Session {
	return &services.Session{User: u.Public(), Token: "tok-" + u.ID, ExpiresAt: time.Now().Add(time.Hour)}
}

func (f *fakeAuth) Me(_ context.Context, userID string) (*models.PublicUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == userID {
			pub := u.Public()
			return &pub, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	id, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return nil, common.ErrInvalidToken
	}
	return &auth.Claims{UserID: id}, nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, token)
	return f.logoutErr
}

func (f *fakeAuth) SessionValidity() time.Duration { return time.Hour }

type fakeProgress struct {
	mu   sync.Mutex
	recs map[string]*models.Progress
	err  error
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{recs: map[string]*models.Progress{}}
}

func (f *fakeProgress) get(userID string) *models.Progress {
	p, ok := f.recs[userID]
	if !ok {
		p = &models.Progress{UserID: userID, QuizScores: []models.QuizScore{}, ReviewedFlashcards: []models.ReviewedFlashcard{}}
		f.recs[userID] = p
	}
	return p
}

func (f *fakeProgress) GetProgress(_ context.Context, userID string) (*models.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.get(userID)
	return &cp, nil
}

func (f *fakeProgress) RecordQuiz(_ context.Context, userID, quizID string, score float64) (*models.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if quizID == "" {
		return nil, common.NewValidationError("quizId is required")
	}
	p := f.get(userID)
	p.QuizzesCompleted++
	p.QuizScores = append(p.QuizScores, models.QuizScore{QuizID: quizID, Score: score, CompletedAt: time.Now()})
	cp := *p
	return &cp, nil
}

func (f *fakeProgress) RecordFlashcard(_ context.Context, userID, cardID string) (*models.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := f.get(userID)
	for i := range p.ReviewedFlashcards {
		if p.ReviewedFlashcards[i].CardID == cardID {
			p.ReviewedFlashcards[i].LastReviewed = time.Now()
			cp := *p
			return &cp, nil
		}
	}
	p.FlashcardsReviewed++
	p.ReviewedFlashcards = append(p.ReviewedFlashcards, models.ReviewedFlashcard{CardID: cardID, LastReviewed: time.Now()})
	cp := *p
	return &cp, nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}
