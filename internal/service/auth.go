package service

import (
	"context"
	"strings"
	"time"

	"github.com/Skotchmaster/shop_api/internal/hash"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/pkg/logging"
	"github.com/Skotchmaster/shop_api/pkg/tokens"
)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	TokenTTL  time.Duration
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func (s *AuthService) Register(ctx context.Context, userName, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email = normalizeEmail(email)
	if strings.TrimSpace(userName) == "" || email == "" || password == "" {
		return nil, newErr(ErrValidation, "userName, email and password are required")
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := models.User{
		UserName:     strings.TrimSpace(userName),
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if repo.IsDuplicate(err) {
			return nil, wrapErr(ErrConflict, err, "User already exists with the same email! Please try again")
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, newErr(ErrUnauthorized, "User doesn't exists! Please register first")
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Info("login_rejected", "reason", "password mismatch", "user_id", user.ID)
		return nil, newErr(ErrUnauthorized, "Incorrect password! Please try again")
	}

	token, exp, err := tokens.NewAccessToken(user.ID.String(), user.Role, user.Email, user.UserName, s.TokenTTL, s.JWTSecret)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
