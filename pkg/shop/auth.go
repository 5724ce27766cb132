// Package shop holds the storefront's business rules: accounts and
// sessions, the catalog, and order placement.
package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Firstname  string `json:"firstname" validate:"required"`
	Middlename string `json:"middlename"`
	Lastname   string `json:"lastname" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Address    string `json:"address"`
	Contact    string `json:"contact"`
}

type StatusView struct {
	LoggedIn bool             `json:"loggedIn"`
	User     *models.Identity `json:"user,omitempty"`
}

type AuthService struct {
	users    repository.UserRepository
	sessions session.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewAuthService(users repository.UserRepository, sessions session.Store, m *metrics.Metrics, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, sessions: sessions, metrics: m, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user, err := s.newUser(in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

func (s *AuthService) newUser(in RegisterInput, role string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &models.User{
		ID:           uuid.NewString(),
		Firstname:    in.Firstname,
		Middlename:   in.Middlename,
		Lastname:     in.Lastname,
		Email:        in.Email,
		PasswordHash: string(hash),
		Address:      in.Address,
		Contact:      in.Contact,
		Role:         role,
		CreatedAt:    time.Now(),
	}, nil
}

// Login checks the credentials and opens a session holding a snapshot of
// the user. Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.Logins.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.Logins.WithLabelValues("rejected").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.Logins.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(ctx, user.Identity())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.metrics.Logins.WithLabelValues("ok").Inc()
	s.logger.Info("User logged in", zap.String("email", user.Email), zap.String("role", user.Role))
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Resolve returns the live session for id, or ErrUnauthorized when there is none.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, ErrUnauthorized
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return sess, nil
}

func (s *AuthService) RequireAdmin(sess *models.Session) error {
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *AuthService) Status(sess *models.Session) StatusView {
	if sess == nil {
		return StatusView{}
	}
	identity := sess.User
	return StatusView{LoggedIn: true, User: &identity}
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListUsers(ctx)
}

// EnsureAdmin creates the configured admin account if no user holds its
// email yet. An existing account is left alone.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" {
		return nil
	}

	email := models.NormalizeEmail(cfg.Email)
	existing, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			s.logger.Warn("Configured admin email belongs to a non-admin user", zap.String("email", email))
		}
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	admin, err := s.newUser(RegisterInput{
		Firstname: cfg.Firstname,
		Lastname:  cfg.Lastname,
		Email:     email,
		Password:  cfg.Password,
	}, models.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.users.CreateUser(ctx, admin); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("Admin account created", zap.String("email", email))
	return nil
}
