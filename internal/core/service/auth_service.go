package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/pkg/id"
	"github.com/taskdesk/todo-service/internal/pkg/token"
)

const MinPasswordLength = 6

// AuthConfig holds the token and reset-link settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	ResetTTL  time.Duration
	ResetURL  string
}

// AuthDeps are the collaborators of AuthService. Verifier may be nil, which
// disables federated sign-in.
type AuthDeps struct {
	Users    ports.UserRepository
	Sessions ports.SessionStore
	Resets   ports.ResetTokenStore
	Verifier ports.IdentityVerifier
	Notifier ports.ResetNotifier
	Events   *StateFeed
	Clock    Clock
}

// AuthService implements registration, sign-in and password recovery.
type AuthService struct {
	deps   AuthDeps
	cfg    AuthConfig
	logger zerolog.Logger
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

func NewAuthService(deps AuthDeps, cfg AuthConfig, logger zerolog.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock(nil)
	}
	if deps.Events == nil {
		deps.Events = NewStateFeed()
	}
	return &AuthService{deps: deps, cfg: cfg, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || len(in.Password) < MinPasswordLength {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = domain.DefaultName(email)
	}

	now := s.deps.Clock().UTC()
	user := &domain.User{
		Email:        email,
		Name:         name,
		Role:         domain.RoleUser,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.deps.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.deps.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// Accounts created through federation have no password.
	if user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// LoginWithGoogle signs in with a Google ID token, creating the profile on
// first use and linking it to an existing account with the same email.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (*ports.AuthResult, error) {
	if s.deps.Verifier == nil {
		return nil, domain.ErrFederationDisabled
	}

	ident, err := s.deps.Verifier.Verify(ctx, idToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("google token rejected")
		return nil, domain.ErrInvalidCredentials
	}
	if !ident.EmailVerified || ident.Email == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.deps.Users.FindByGoogleSub(ctx, ident.Subject)
	switch {
	case err == nil:
		return s.startSession(ctx, user)
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	email := normalizeEmail(ident.Email)
	user, err = s.deps.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.deps.Users.LinkGoogle(ctx, user.ID, ident.Subject); err != nil {
			return nil, err
		}
		user.GoogleSub = ident.Subject
		return s.startSession(ctx, user)
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	name := strings.TrimSpace(ident.Name)
	if name == "" {
		name = domain.DefaultName(email)
	}
	now := s.deps.Clock().UTC()
	user = &domain.User{
		Email:     email,
		Name:      name,
		Role:      domain.RoleUser,
		GoogleSub: ident.Subject,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.deps.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("user created from google sign-in")

	return s.startSession(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, claims ports.Claims) error {
	if err := s.deps.Sessions.Revoke(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.deps.Events.Publish(ctx, domain.AuthEvent{
		Type:      domain.AuthSignedOut,
		SessionID: claims.SessionID,
		UserID:    claims.UserID,
	})
	s.logger.Info().Str("user_id", claims.UserID).Str("session_id", claims.SessionID).Msg("signed out")
	return nil
}

// RequestPasswordReset sends a reset link when the account exists. Unknown
// emails succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.deps.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}

	tok, err := token.New()
	if err != nil {
		return err
	}
	if err := s.deps.Resets.SaveResetToken(ctx, tok, user.ID, s.cfg.ResetTTL); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}

	link, err := resetLink(s.cfg.ResetURL, tok)
	if err != nil {
		return err
	}
	return s.deps.Notifier.SendReset(ctx, user.Email, link)
}

func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidCredentials, MinPasswordLength)
	}

	userID, err := s.deps.Resets.ConsumeResetToken(ctx, resetToken)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.deps.Users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", userID).Msg("password updated")
	return nil
}

func (s *AuthService) Authenticate(ctx context.Context, raw string) (*ports.Claims, error) {
	var claims sessionClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.Subject == "" || claims.SessionID == "" {
		return nil, domain.ErrUnauthenticated
	}

	userID, err := s.deps.Sessions.Lookup(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if userID != claims.Subject {
		return nil, domain.ErrSessionNotFound
	}

	return &ports.Claims{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		Email:     claims.Email,
	}, nil
}

// Events exposes the session-state change stream.
func (s *AuthService) Events() *StateFeed {
	return s.deps.Events
}

// startSession records a new session, signs its token and announces it.
func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*ports.AuthResult, error) {
	sid := id.New()
	if err := s.deps.Sessions.Create(ctx, sid, user.ID, s.cfg.TokenTTL); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	signed, err := s.generateToken(user, sid)
	if err != nil {
		return nil, err
	}

	s.deps.Events.Publish(ctx, domain.AuthEvent{Type: domain.AuthSignedIn, SessionID: sid, UserID: user.ID})
	s.logger.Info().Str("user_id", user.ID).Str("session_id", sid).Msg("signed in")

	return &ports.AuthResult{Token: signed, SessionID: sid, User: user}, nil
}

func (s *AuthService) generateToken(user *domain.User, sid string) (string, error) {
	now := s.deps.Clock()
	claims := sessionClaims{
		SessionID: sid,
		Email:     user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.JWTSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func resetLink(base, tok string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", tok)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
