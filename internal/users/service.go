package users

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/leadbox/internal/auth"
	"github.com/wolfman30/leadbox/internal/observability/metrics"
	"github.com/wolfman30/leadbox/internal/tokens"
	"github.com/wolfman30/leadbox/pkg/logging"
)

var tracer = otel.Tracer("leadbox.internal.users")

// Mailer delivers the account lifecycle emails.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, link string, expiryHours int) error
	SendPasswordReset(ctx context.Context, to, name, link string, expiryHours int) error
}

// TokenIssuer signs bearer tokens for logged-in users.
type TokenIssuer interface {
	Issue(userID string, role auth.Role) (string, error)
}

// ServiceConfig carries the URLs and policies the account flows depend on.
type ServiceConfig struct {
	// FrontendURL prefixes the password reset link.
	FrontendURL string
	// BackendURL prefixes the verify-email link.
	BackendURL string
	// RequireVerifiedLogin rejects client logins until the email is verified.
	RequireVerifiedLogin bool
	// TokenTTLSeconds is reported to clients alongside issued tokens.
	TokenTTLSeconds int64
}

// Service implements registration, login, verification and password reset.
type Service struct {
	repo   Repository
	issuer TokenIssuer
	verify *tokens.Signer
	reset  *tokens.Signer
	mailer Mailer
	cfg    ServiceConfig
	obs    *metrics.Metrics
	logger *logging.Logger
}

// NewService wires the account flows.
func NewService(repo Repository, issuer TokenIssuer, verify, reset *tokens.Signer, mailer Mailer, cfg ServiceConfig, obs *metrics.Metrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		issuer: issuer,
		verify: verify,
		reset:  reset,
		mailer: mailer,
		cfg:    cfg,
		obs:    obs,
		logger: logger,
	}
}

// Register creates an unverified client and sends the verification email.
// A failed email does not undo the registration; the client can ask for a
// resend.
func (s *Service) Register(ctx context.Context, in *RegisterInput) (*User, error) {
	ctx, span := tracer.Start(ctx, "users.register")
	defer span.End()

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	user := &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         auth.RoleClient,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("leadbox.user_id", user.ID))

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Warn("verification email not sent", "error", err, "user_id", user.ID)
	}
	s.logger.Info("client registered", "user_id", user.ID)
	return user, nil
}

// ResendVerification issues a fresh verification link.
func (s *Service) ResendVerification(ctx context.Context, user *User) error {
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}
	return s.sendVerification(ctx, user)
}

// VerifyEmail applies a verification token. The bool reports whether the
// account had already been verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*User, bool, error) {
	userID, err := s.verify.Verify(token)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			return nil, false, ErrVerificationExpired
		}
		return nil, false, ErrVerificationInvalid
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, false, ErrVerificationInvalid
		}
		return nil, false, err
	}
	if user.IsEmailVerified {
		return user, true, nil
	}
	if err := s.repo.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, false, err
	}
	user.IsEmailVerified = true
	s.logger.Info("email verified", "user_id", user.ID)
	return user, false, nil
}

// Login checks credentials for the given role and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string, role auth.Role) (*LoginResult, error) {
	ctx, span := tracer.Start(ctx, "users.login")
	defer span.End()
	span.SetAttributes(attribute.String("leadbox.role", string(role)))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.obs.ObserveLogin(string(role), false)
			return nil, ErrInvalidCredentials
		}
		span.RecordError(err)
		return nil, err
	}
	if user.Role != role || !auth.VerifyPassword(password, user.PasswordHash) {
		s.obs.ObserveLogin(string(role), false)
		return nil, ErrInvalidCredentials
	}
	if role == auth.RoleClient && s.cfg.RequireVerifiedLogin && !user.IsEmailVerified {
		s.obs.ObserveLogin(string(role), false)
		return nil, ErrEmailNotVerified
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("users: issue token: %w", err)
	}
	s.obs.ObserveLogin(string(role), true)
	return &LoginResult{Token: token, ExpiresIn: s.cfg.TokenTTLSeconds, User: user}, nil
}

// Profile returns the caller's account.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ListClients returns every client account, newest first.
func (s *Service) ListClients(ctx context.Context) ([]*User, error) {
	return s.repo.ListByRole(ctx, auth.RoleClient)
}

// ForgotPassword emails a one-hour reset link.
func (s *Service) ForgotPassword(ctx context.Context, user *User) error {
	token, err := s.reset.Sign(user.ID)
	if err != nil {
		return err
	}
	link := joinURL(s.cfg.FrontendURL, "/reset-password/"+url.PathEscape(token))
	err = s.mailer.SendPasswordReset(ctx, user.Email, user.Name, link, hours(s.reset))
	s.obs.ObserveEmail("password_reset", err == nil)
	if err != nil {
		return fmt.Errorf("users: send reset email: %w", err)
	}
	return nil
}

// ResolveResetToken maps a reset token to its user id.
func (s *Service) ResolveResetToken(token string) (string, error) {
	userID, err := s.reset.Verify(token)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			return "", ErrResetExpired
		}
		return "", ErrResetInvalid
	}
	return userID, nil
}

// ResetPassword stores a new hash for userID.
func (s *Service) ResetPassword(ctx context.Context, userID, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrResetInvalid
		}
		return err
	}
	s.logger.Info("password reset", "user_id", userID)
	return nil
}

func (s *Service) sendVerification(ctx context.Context, user *User) error {
	token, err := s.verify.Sign(user.ID)
	if err != nil {
		return err
	}
	link := joinURL(s.cfg.BackendURL, "/api/users/client/verify-email") + "?token=" + url.QueryEscape(token)
	err = s.mailer.SendVerification(ctx, user.Email, user.Name, link, hours(s.verify))
	s.obs.ObserveEmail("verification", err == nil)
	if err != nil {
		return fmt.Errorf("users: send verification email: %w", err)
	}
	return nil
}

func hours(s *tokens.Signer) int {
	return int(s.TTL().Hours())
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
