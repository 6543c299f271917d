package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
	"mach-lagbe/policy"
	"mach-lagbe/repository"
	"mach-lagbe/sessions"
	"mach-lagbe/utils"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type AuthResult struct {
	User  *models.User
	Token string
}

// IAuthService issues and resolves sessions.
type IAuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// ResolveSession verifies a bearer token and re-reads the user so the
	// identity always carries the stored role.
	ResolveSession(ctx context.Context, token string) (*models.Identity, error)
	Logout(ctx context.Context, id *models.Identity) error
	Me(ctx context.Context, id *models.Identity) (*models.User, error)
	UpdateProfile(ctx context.Context, id *models.Identity, update models.ProfileUpdate) (*models.User, error)
}

type AuthService struct {
	users   repository.IUserRepository
	tokens  *utils.TokenManager
	revoker sessions.Revoker
	log     logrus.FieldLogger
}

func NewAuthService(users repository.IUserRepository, tokens *utils.TokenManager, revoker sessions.Revoker, log logrus.FieldLogger) *AuthService {
	return &AuthService{users: users, tokens: tokens, revoker: revoker, log: log}
}

var errPleaseAuthenticate = apperrors.Unauthenticated("Please authenticate")

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, _, err := s.tokens.GenerateToken(user.ID.Hex())
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperrors.Validation("Please provide name, email, and password")
	}
	if err := models.ValidateEmail(email); err != nil {
		return nil, apperrors.Validation("Please provide a valid email")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Internal("Registration failed", err)
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Role:         models.RoleCustomer,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			return nil, apperrors.Duplicate("Email already registered")
		}
		return nil, apperrors.Internal("Registration failed", err)
	}
	s.log.WithField("user_id", user.ID.Hex()).Info("User registered")
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.Validation("Please provide email and password")
	}
	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, apperrors.Internal("Login failed", err)
	}
	ok, err := utils.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, apperrors.Internal("Login failed", err)
	}
	if !ok {
		return nil, apperrors.Unauthenticated("Invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, errPleaseAuthenticate
	}
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, errPleaseAuthenticate
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, errPleaseAuthenticate
	}
	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperrors.Internal("Session check failed", err)
		}
		if revoked {
			return nil, errPleaseAuthenticate
		}
	}
	user, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, errPleaseAuthenticate
	}
	if err != nil {
		return nil, apperrors.Internal("Session check failed", err)
	}

	id := user.Identity()
	id.TokenID = claims.ID
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func (s *AuthService) Logout(ctx context.Context, id *models.Identity) error {
	if id == nil {
		return errPleaseAuthenticate
	}
	if s.revoker == nil || id.TokenID == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return apperrors.Internal("Logout failed", err)
	}
	s.log.WithField("user_id", id.UserID.Hex()).Info("Session revoked")
	return nil
}

func (s *AuthService) Me(ctx context.Context, id *models.Identity) (*models.User, error) {
	if id == nil {
		return nil, errPleaseAuthenticate
	}
	user, err := s.users.FindUserByID(ctx, id.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, errPleaseAuthenticate
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load user", err)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, id *models.Identity, update models.ProfileUpdate) (*models.User, error) {
	if err := policy.Authorize(id, policy.ProfileUpdate, id.OwnerID()); err != nil {
		return nil, err
	}
	user, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.Validation("Name cannot be empty")
		}
		user.Name = name
	}
	if update.Phone != nil {
		user.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Address != nil {
		user.Address = strings.TrimSpace(*update.Address)
	}
	if update.Avatar != nil {
		user.Avatar = strings.TrimSpace(*update.Avatar)
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errPleaseAuthenticate
		}
		return nil, apperrors.Internal("Failed to update profile", err)
	}
	return user, nil
}
