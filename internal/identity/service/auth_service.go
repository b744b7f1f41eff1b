package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	attemptdomain "senya-web-backend/internal/loginattempt/domain"
	notedomain "senya-web-backend/internal/note/domain"
	"senya-web-backend/internal/security"
	userdomain "senya-web-backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
var (
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated means a required token was absent. Wrapped with a
	// reason ("no access token provided" / "no refresh token provided").
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidToken means the access token failed decoding for a reason
	// other than expiry; no refresh is attempted.
	ErrInvalidToken = errors.New("invalid access token")
	// ErrWrongTokenType means a token of the wrong kind was presented where
	// an access token was expected.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrUserNotFound means the refresh token's subject no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrRefreshTokenInvalid means the refresh token failed validation and
	// the caller must re-authenticate.
	ErrRefreshTokenInvalid = errors.New("invalid refresh token")
)

// AuthResult holds the outcome of Login or Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *userdomain.User
}

// VerifyResult is the outcome of a successful token verification.
// NewAccessToken is non-empty only when a silent refresh occurred.
type VerifyResult struct {
	Subject        string
	NewAccessToken string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// FolderRepo creates the root note folder for a newly registered user.
type FolderRepo interface {
	CreateFolder(ctx context.Context, f *notedomain.Folder) error
}

// AttemptRepo records login attempts. Best-effort; failures never fail a login.
type AttemptRepo interface {
	Create(ctx context.Context, a *attemptdomain.Attempt) error
}

// AuthService implements register, login, token verification with silent
// refresh, and refresh-token exchange.
type AuthService struct {
	userRepo    UserRepo
	folderRepo  FolderRepo
	attemptRepo AttemptRepo
	hasher      *security.Hasher
	tokens      *security.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
// folderRepo and attemptRepo may be nil (no root folder / no attempt audit).
func NewAuthService(
	userRepo UserRepo,
	folderRepo FolderRepo,
	attemptRepo AttemptRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		folderRepo:  folderRepo,
		attemptRepo: attemptRepo,
		hasher:      hasher,
		tokens:      tokens,
	}
}

// Register creates a user with the given username and password and the user's
// root note folder. Returns the created user.
func (s *AuthService) Register(ctx context.Context, username, password string) (*userdomain.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hashed,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if s.folderRepo != nil {
		root := &notedomain.Folder{
			UserID:    user.ID,
			Name:      username,
			IsRoot:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.folderRepo.CreateFolder(ctx, root); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Login authenticates with username/password and returns a fresh token pair.
// Every attempt, failed or not, is recorded when an attempt repo is wired.
func (s *AuthService) Login(ctx context.Context, username, password, ipAddress string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	ok := user != nil && user.Status == userdomain.UserStatusActive &&
		s.hasher.Compare(user.PasswordHash, []byte(password)) == nil
	s.recordAttempt(ctx, username, ipAddress, ok)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	accessToken, accessExp, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		User:         user,
	}, nil
}

// VerifyTokens validates the access token and, when it is expired and a valid
// refresh token is present, silently mints a new access token.
//
// Outcomes:
//   - valid access token: success; the refresh token and the user store are
//     never consulted and no new token is minted.
//   - wrong token kind presented as access: ErrWrongTokenType.
//   - malformed or forged access token: ErrInvalidToken; no refresh attempt.
//   - expired access token: refresh is attempted. A missing refresh token is
//     ErrUnauthenticated; a refresh token that fails decoding is
//     ErrRefreshTokenInvalid; a subject that no longer exists is
//     ErrUserNotFound. On success the result carries a new access token.
//
// An absent access token is always ErrUnauthenticated: refresh-token-only
// entry is served solely by the explicit Refresh endpoint.
func (s *AuthService) VerifyTokens(ctx context.Context, accessToken, refreshToken string) (*VerifyResult, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: no access token provided", ErrUnauthenticated)
	}
	claims, err := s.tokens.DecodeAccess(accessToken)
	switch {
	case err == nil:
		return &VerifyResult{Subject: claims.Subject}, nil
	case errors.Is(err, security.ErrWrongTokenType):
		return nil, ErrWrongTokenType
	case errors.Is(err, security.ErrTokenExpired):
		// fall through to refresh
	default:
		return nil, ErrInvalidToken
	}

	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token provided", ErrUnauthenticated)
	}
	subject, newAccess, err := s.refreshAccessToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Subject: subject, NewAccessToken: newAccess}, nil
}

// Refresh exchanges a valid refresh token for a new access token. Used by the
// explicit refresh endpoint; the refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token provided", ErrUnauthenticated)
	}
	subject, newAccess, err := s.refreshAccessToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, subject)
	if err != nil || user == nil {
		// The subject was just confirmed; treat a vanished row as invalid.
		return nil, ErrRefreshTokenInvalid
	}
	return &AuthResult{AccessToken: newAccess, User: user}, nil
}

// GetUser returns the user record for the given subject id, or nil.
// Identity enrichment for handlers that need more than the bare id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*userdomain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// refreshAccessToken validates the refresh token and mints a new access token
// for its subject. Store errors surface as ErrRefreshTokenInvalid so the
// client sees a single failure mode: re-authenticate.
func (s *AuthService) refreshAccessToken(ctx context.Context, refreshToken string) (subject, newAccess string, err error) {
	claims, err := s.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		return "", "", ErrRefreshTokenInvalid
	}
	user, err := s.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		return "", "", ErrRefreshTokenInvalid
	}
	if user == nil || user.Status != userdomain.UserStatusActive {
		return "", "", ErrUserNotFound
	}
	newAccess, _, err = s.tokens.IssueAccess(claims.Subject)
	if err != nil {
		return "", "", err
	}
	return claims.Subject, newAccess, nil
}

func (s *AuthService) recordAttempt(ctx context.Context, username, ipAddress string, ok bool) {
	if s.attemptRepo == nil {
		return
	}
	detail := ""
	if !ok {
		detail = "invalid credentials"
	}
	_ = s.attemptRepo.Create(ctx, &attemptdomain.Attempt{
		ID:        uuid.New().String(),
		Username:  username,
		Succeeded: ok,
		IPAddress: ipAddress,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
}

func validateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if len(username) < 3 || len(username) > 50 {
		return errors.New("username must be between 3 and 50 characters")
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return errors.New("username may only contain letters, numbers, '_', '-', and '.'")
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
