package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrDuplicateEmail      = apperr.AlreadyExists("user with this email already exists")
	ErrInvalidCredentials  = apperr.Unauthorized("invalid email or password")
	ErrUserNotFound        = apperr.NotFound("user")
	ErrInvalidToken        = apperr.Unauthorized("invalid or expired token")
	ErrAuthRequired        = apperr.Unauthorized("authentication required")
	ErrEmailInvalid        = apperr.Validation("invalid email format")
	ErrDisplayNameRequired = apperr.Validation("display name is required")
)

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Email         string
	DisplayName   string
	Password      string
	Newsletter    bool
	Accessibility bool
}

// PublicUser is the projection returned alongside a token.
type PublicUser struct {
	ID          uint          `json:"id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"displayName"`
	Role        entities.Role `json:"role"`
}

func NewPublicUser(u *entities.User) PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role}
}

// Session is the result of a successful signup or login.
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      PublicUser `json:"user"`
}

// Service handles signup, login and token verification.
type Service struct {
	users  *users.Repository
	tokens *TokenManager
	config config.Auth

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, tokens *TokenManager, cfg config.Auth) *Service {
	return &Service{
		users:  users.NewRepository(db),
		tokens: tokens,
		config: cfg,
	}
}

// Signup creates an account and returns a session for it.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	email := strings.TrimSpace(in.Email)
	displayName := strings.TrimSpace(in.DisplayName)

	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if displayName == "" {
		return nil, ErrDisplayNameRequired
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Email:         email,
		DisplayName:   displayName,
		PasswordHash:  passwordHash,
		Role:          entities.RoleUser,
		Newsletter:    in.Newsletter,
		Accessibility: in.Accessibility,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.newSession(user)
}

// Login verifies credentials. Unknown email and wrong password both yield
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Spend the same bcrypt time as a real comparison.
			_ = CheckPassword(password, s.dummyPasswordHash())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	return s.newSession(user)
}

// GetProfile returns the user without the password hash.
func (s *Service) GetProfile(ctx context.Context, userID uint) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Authenticate verifies a bearer token and resolves it to a Principal.
// The user must still exist; the role is read from the database.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func (s *Service) newSession(user *entities.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: NewPublicUser(user)}, nil
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := HashPassword("not-a-real-password", s.config.BcryptCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
