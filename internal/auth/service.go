package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sarelsmotors/garage/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyPassword      = errors.New("password must not be empty")
)

// Login failure reasons. They are recorded in the audit trail and logs but
// never returned to the client.
const (
	ReasonUnknownEmail = "unknown_email"
	ReasonNoPassword   = "no_password"
	ReasonBadPassword  = "bad_password"
	ReasonSigningKey   = "signing_key_missing"
)

// LoginAttempt describes one login for the audit trail.
type LoginAttempt struct {
	UserID         *uuid.UUID
	OrganizationID *uuid.UUID
	Email          string
	Success        bool
	Reason         string
	IP             string
	At             time.Time
}

// AuditRecorder receives every login attempt. Errors are logged and
// otherwise ignored.
type AuditRecorder interface {
	RecordLogin(ctx context.Context, attempt LoginAttempt) error
}

type Service struct {
	db     *gorm.DB
	jwt    *JWTService
	audit  AuditRecorder
	logger *slog.Logger
}

func NewService(db *gorm.DB, jwt *JWTService, audit AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, jwt: jwt, audit: audit, logger: logger}
}

type LoginInput struct {
	Email    string
	Password string
	IP       string
}

type AuthResponse struct {
	Token string       `json:"-"`
	User  *models.User `json:"user"`
}

// Login looks up an active user by email and, when the password matches,
// issues a session token. Unknown emails, users without a password and wrong
// passwords all return ErrInvalidCredentials after the same bcrypt work.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	email := models.NormalizeEmail(input.Email)

	if !s.jwt.Configured() {
		s.logger.Error("login refused: token signing key is not configured")
		s.record(ctx, LoginAttempt{Email: email, Reason: ReasonSigningKey, IP: input.IP})
		return nil, ErrMissingSigningKey
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", email, true).
		First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("looking up user: %w", err)
		}
		burnCompare(input.Password)
		s.logger.Debug("login failed", "reason", ReasonUnknownEmail)
		s.record(ctx, LoginAttempt{Email: email, Reason: ReasonUnknownEmail, IP: input.IP})
		return nil, ErrInvalidCredentials
	}

	if user.HashedPassword == "" {
		burnCompare(input.Password)
		s.logger.Debug("login failed", "reason", ReasonNoPassword, "user_id", user.ID)
		s.recordUser(ctx, &user, ReasonNoPassword, input.IP)
		return nil, ErrInvalidCredentials
	}

	if !CheckPassword(input.Password, user.HashedPassword) {
		s.logger.Debug("login failed", "reason", ReasonBadPassword, "user_id", user.ID)
		s.recordUser(ctx, &user, ReasonBadPassword, input.IP)
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.OrganizationID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		s.logger.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now

	s.record(ctx, LoginAttempt{
		UserID:         &user.ID,
		OrganizationID: &user.OrganizationID,
		Email:          email,
		Success:        true,
		IP:             input.IP,
	})

	return &AuthResponse{
		Token: token,
		User:  &user,
	}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Organization").
		Where("is_active = ?", true).
		First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) recordUser(ctx context.Context, user *models.User, reason, ip string) {
	s.record(ctx, LoginAttempt{
		UserID:         &user.ID,
		OrganizationID: &user.OrganizationID,
		Email:          user.Email,
		Reason:         reason,
		IP:             ip,
	})
}

func (s *Service) record(ctx context.Context, attempt LoginAttempt) {
	if s.audit == nil {
		return
	}
	attempt.At = time.Now().UTC()
	if err := s.audit.RecordLogin(ctx, attempt); err != nil {
		s.logger.Warn("failed to record login attempt", "error", err)
	}
}
