// Package services contains server-side business logic. AuthService handles
// registration, login and session checks. ProgressService records quiz and
// flashcard activity.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/cyberguard/internal/common"
	"github.com/dmitrijs2005/cyberguard/internal/dbx"
	"github.com/dmitrijs2005/cyberguard/internal/server/auth"
	"github.com/dmitrijs2005/cyberguard/internal/server/config"
	"github.com/dmitrijs2005/cyberguard/internal/server/models"
	"github.com/dmitrijs2005/cyberguard/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past this many bytes.
const maxPasswordBytes = 72

// Session is the outcome of a successful register or login.
type Session struct {
	User      models.PublicUser
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	issuer         *auth.Issuer
	bcryptCost     int
	revokeOnLogout bool
	now            func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AuthService {
	return &AuthService{
		db:             db,
		repomanager:    m,
		issuer:         auth.NewIssuer(cfg.SecretKey, cfg.SessionValidityDuration),
		bcryptCost:     cfg.BcryptCost,
		revokeOnLogout: cfg.RevokeOnLogout,
		now:            time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the user and an empty progress record in one transaction
// and opens a session.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" || email == "" {
		return nil, common.NewValidationError("Name and email are required")
	}
	if utf8.RuneCountInString(password) < common.MinPasswordLength {
		return nil, common.ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return nil, common.NewValidationError("Password must be at most 72 bytes long")
	}

	_, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
		})
		if err != nil {
			return err
		}
		return s.repomanager.Progress(tx).Ensure(ctx, user.ID, s.now().UTC())
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.openSession(user)
}

// Login checks the credentials and opens a session. Unknown email and wrong
// password both yield common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnCompare(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	if err := s.repomanager.Progress(s.db).Touch(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("error updating last activity: %w", err)
	}

	return s.openSession(user)
}

// burnCompare spends the same bcrypt work as a real comparison so response
// time does not reveal whether the email exists.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cyberguard-placeholder"), s.bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func (s *AuthService) openSession(user *models.User) (*Session, error) {
	token, claims, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{User: user.Public(), Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Me returns the public projection of the user, or common.ErrorNotFound if
// the account no longer exists.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	pub := user.Public()
	return &pub, nil
}

// Authenticate verifies a session token. An empty token is
// common.ErrorUnauthorized, a bad or expired one common.ErrInvalidToken or
// common.ErrTokenExpired, and a logged-out one common.ErrTokenRevoked.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}

	if s.revokeOnLogout {
		revoked, err := s.repomanager.RevokedTokens(s.db).IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("error checking token: %w", err)
		}
		if revoked {
			return nil, common.ErrTokenRevoked
		}
	}

	return claims, nil
}

// Logout revokes the token when revocation is enabled. Without it, or for a
// token that no longer verifies, there is nothing to do.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if !s.revokeOnLogout || token == "" {
		return nil
	}

	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil
	}

	err = s.repomanager.RevokedTokens(s.db).Create(ctx, models.RevokedToken{
		TokenID:   claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	if err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

// PurgeRevoked drops denylist entries whose tokens have expired.
func (s *AuthService) PurgeRevoked(ctx context.Context) (int64, error) {
	if !s.revokeOnLogout {
		return 0, nil
	}
	return s.repomanager.RevokedTokens(s.db).DeleteExpired(ctx, s.now())
}

// SessionValidity is the lifetime of issued tokens.
func (s *AuthService) SessionValidity() time.Duration {
	return s.issuer.Validity()
}
