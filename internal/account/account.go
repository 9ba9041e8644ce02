// ABOUTME: Account service: registration, login, profile edits, password changes, deletion
// ABOUTME: Owns the rules around users; persistence goes through the user repository

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/2389/teamup/internal/auth"
	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/store"
)

// Account errors
var (
	ErrAlreadyExists   = errors.New("account already exists")
	ErrNotFound        = errors.New("account not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrForbidden       = errors.New("operation not allowed")
	ErrInvalidInput    = errors.New("invalid input")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// dummyHash is compared against when the account doesn't exist so that
// unknown emails take as long as wrong passwords.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Users is the slice of the user repository the service needs.
type Users interface {
	Save(ctx context.Context, create entity.CreateUser) (entity.User, error)
	FindByID(ctx context.Context, id entity.ID[entity.User]) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateByID(ctx context.Context, id entity.ID[entity.User], update entity.UserUpdate) (*entity.User, error)
	DeleteByID(ctx context.Context, id entity.ID[entity.User]) (*entity.User, error)
	CountByRole(ctx context.Context) (map[entity.Role]int, error)
}

// Service implements account management.
type Service struct {
	users  Users
	hasher auth.PasswordHasher
	tokens auth.TokenIssuer
	logger *slog.Logger
}

func NewService(users Users, hasher auth.PasswordHasher, tokens auth.TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("component", "account"),
	}
}

// Session is an account together with a freshly issued token.
type Session struct {
	User  entity.User
	Token string
}

// RegisterRequest holds a self-service sign-up.
type RegisterRequest struct {
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     entity.Role `json:"role"`
}

// Register creates a participant or mentor account. Organizators are only
// created through Bootstrap.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	switch req.Role {
	case entity.RoleParticipant, entity.RoleMentor:
	case entity.RoleOrganizator:
		return nil, fmt.Errorf("%w: organizators cannot self-register", ErrForbidden)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}

	user, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.session(*user)
}

// Bootstrap creates the first organizator. It fails with ErrAlreadyExists
// once any organizator exists.
func (s *Service) Bootstrap(ctx context.Context, email, username, password string) (*entity.User, error) {
	counts, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}
	if counts[entity.RoleOrganizator] > 0 {
		return nil, fmt.Errorf("%w: an organizator is already registered", ErrAlreadyExists)
	}

	user, err := s.create(ctx, RegisterRequest{
		Email:    email,
		Username: username,
		Password: password,
		Role:     entity.RoleOrganizator,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("bootstrapped organizator", "user_id", user.ID.Key(), "username", user.Username)
	return user, nil
}

func (s *Service) create(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validate(req.Email, req.Username); err != nil {
		return nil, err
	}
	if len(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	if err := s.ensureAvailable(ctx, req.Email, req.Username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Save(ctx, entity.CreateUser{
		Email:        req.Email,
		PasswordHash: hash,
		Username:     req.Username,
		Role:         req.Role,
	})
	if errors.Is(err, store.ErrConstraintViolation) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}

	s.logger.Info("registered user", "user_id", user.ID.Key(), "role", user.Role)
	return &user, nil
}

func validate(email, username string) error {
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, "<> ") {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidInput, email)
	}
	if username == "" || len(username) > 64 {
		return fmt.Errorf("%w: username must be 1-64 characters", ErrInvalidInput)
	}
	return nil
}

// ensureAvailable rejects an email or username that is already taken. Empty
// values are skipped.
func (s *Service) ensureAvailable(ctx context.Context, email, username string) error {
	if email != "" {
		taken, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("checking email: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: email is taken", ErrAlreadyExists)
		}
	}
	if username != "" {
		taken, err := s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("checking username: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: username is taken", ErrAlreadyExists)
		}
	}
	return nil
}

func (s *Service) session(user entity.User) (*Session, error) {
	token, err := s.tokens.Issue(auth.Kind(user.Role), user.ID.Key())
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

// Login checks an email and password and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		_ = s.hasher.Verify(password, dummyHash)
		return nil, ErrNotFound
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}
	return s.session(*user)
}

// Get returns the account or ErrNotFound.
func (s *Service) Get(ctx context.Context, id entity.ID[entity.User]) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// Update changes the email and/or username. Other fields of patch are ignored.
func (s *Service) Update(ctx context.Context, id entity.ID[entity.User], patch entity.UserUpdate) (*entity.User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	safe := entity.UserUpdate{}
	email, username := current.Email, current.Username
	var checkEmail, checkUsername string
	if v, ok := patch.Email.Get(); ok {
		if v = strings.TrimSpace(v); v != current.Email {
			email, checkEmail = v, v
			safe.Email = entity.Set(email)
		}
	}
	if v, ok := patch.Username.Get(); ok {
		if v = strings.TrimSpace(v); v != current.Username {
			username, checkUsername = v, v
			safe.Username = entity.Set(username)
		}
	}
	if err := validate(email, username); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, checkEmail, checkUsername); err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateByID(ctx, id, safe)
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// SetProfile points the account at a profile, or clears it with nil.
func (s *Service) SetProfile(ctx context.Context, id entity.ID[entity.User], profile *entity.ID[entity.Profile]) (*entity.User, error) {
	value := entity.Null[entity.ID[entity.Profile]]()
	if profile != nil {
		value = entity.Value(*profile)
	}
	updated, err := s.users.UpdateByID(ctx, id, entity.UserUpdate{Profile: entity.Set(value)})
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// ChangePassword verifies the current password, stores the hash of the new
// one and issues a fresh token.
func (s *Service) ChangePassword(ctx context.Context, id entity.ID[entity.User], current, next string) (*Session, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Verify(current, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}
	if len(next) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.UpdateByID(ctx, id, entity.UserUpdate{PasswordHash: entity.Set(hash)})
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	s.logger.Info("password changed", "user_id", id.Key())
	return s.session(*updated)
}

// Delete removes the account. The last organizator cannot be deleted, so the
// platform always keeps an administrator.
func (s *Service) Delete(ctx context.Context, id entity.ID[entity.User]) (*entity.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == entity.RoleOrganizator {
		counts, err := s.users.CountByRole(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting users: %w", err)
		}
		if counts[entity.RoleOrganizator] <= 1 {
			return nil, fmt.Errorf("%w: cannot delete the last organizator", ErrForbidden)
		}
	}

	deleted, err := s.users.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deleting user: %w", err)
	}
	if deleted == nil {
		return nil, ErrNotFound
	}
	s.logger.Info("deleted user", "user_id", id.Key())
	return deleted, nil
}

// Principals builds the registry for the single user table: one kind per
// role, each resolving only users that still hold that role.
func Principals(users auth.NodeFinder[entity.User]) *auth.Registry {
	registry := auth.NewRegistry()
	for _, role := range entity.Roles {
		registry.Register(auth.Kind(role), auth.FilteredResolver[entity.User](users, func(u *entity.User) bool {
			return u.Role == role
		}))
	}
	return registry
}

// Kind returns the principal kind for a role.
func Kind(role entity.Role) auth.Kind {
	return auth.Kind(role)
}
