package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"petshop-backend/internal/auth"
	"petshop-backend/internal/bookings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicate          = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrNotConfigured      = errors.New("auth not configured")
)

type Service struct {
	repo     Repository
	tokens   *auth.Manager
	location *time.Location
	now      func() time.Time
}

func NewService(repo Repository, tokens *auth.Manager, location *time.Location) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		repo:     repo,
		tokens:   tokens,
		location: location,
		now:      time.Now,
	}
}

// Register creates a customer account. Admins are promoted afterwards through SetRole or the seed command.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, Tokens, error) {
	if !s.configured() {
		return User{}, Tokens{}, ErrNotConfigured
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return User{}, Tokens{}, err
	}

	now := s.now().In(s.location)
	user := User{
		ID:           primitive.NewObjectID().Hex(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         auth.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, Tokens{}, ErrDuplicate
		}
		return User{}, Tokens{}, err
	}

	tokens, err := s.issue(user)
	if err != nil {
		return User{}, Tokens{}, err
	}
	return user, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, Tokens, error) {
	if !s.configured() {
		return User{}, Tokens{}, ErrNotConfigured
	}
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, Tokens{}, ErrInvalidCredentials
		}
		return User{}, Tokens{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		return User{}, Tokens{}, ErrInvalidCredentials
	}

	tokens, err := s.issue(user)
	if err != nil {
		return User{}, Tokens{}, err
	}
	return user, tokens, nil
}

// Refresh re-reads the user so that role changes apply on the next rotation.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (User, Tokens, error) {
	if !s.configured() {
		return User{}, Tokens{}, ErrNotConfigured
	}
	claims, err := s.tokens.ParseKind(refreshToken, auth.TokenRefresh)
	if err != nil {
		return User{}, Tokens{}, ErrInvalidCredentials
	}
	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, Tokens{}, ErrInvalidCredentials
		}
		return User{}, Tokens{}, err
	}

	tokens, err := s.issue(user)
	if err != nil {
		return User{}, Tokens{}, err
	}
	return user, tokens, nil
}

func (s *Service) Me(ctx context.Context, session auth.Session) (User, error) {
	user, err := s.repo.GetByID(ctx, session.UserID)
	if err != nil {
		return User{}, mapNotFound(err)
	}
	return user, nil
}

// Customer returns the contact fields a booking snapshots at creation.
func (s *Service) Customer(ctx context.Context, userID string) (bookings.Customer, bool, error) {
	user, err := s.repo.GetByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return bookings.Customer{}, false, nil
		}
		return bookings.Customer{}, false, err
	}
	return bookings.Customer{Name: user.Name, Phone: user.Phone, Email: user.Email}, true, nil
}

func (s *Service) List(ctx context.Context, limit, offset int64) ([]User, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SetRole(ctx context.Context, id, role string) (User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != auth.RoleCustomer && role != auth.RoleAdmin {
		return User{}, ErrInvalidRole
	}
	user, err := s.repo.SetRole(ctx, strings.TrimSpace(id), role, s.now().In(s.location))
	if err != nil {
		return User{}, mapNotFound(err)
	}
	return user, nil
}

func (s *Service) SetPassword(ctx context.Context, id, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, strings.TrimSpace(id), hash, s.now().In(s.location)); err != nil {
		return mapNotFound(err)
	}
	return nil
}

func (s *Service) configured() bool {
	return s.tokens != nil && len(s.tokens.Secret) > 0
}

func (s *Service) issue(user User) (Tokens, error) {
	session := auth.Session{UserID: user.ID, Role: user.Role}
	access, err := s.tokens.NewAccessToken(session)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.tokens.NewRefreshToken(session)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.tokens.AccessTTL.Seconds()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
