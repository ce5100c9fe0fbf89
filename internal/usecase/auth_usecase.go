package usecase

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

const bcryptCost = 12

type AuthUsecase struct {
	users repo.UserRepository
	cfg   config.Config
}

func NewAuthUsecase(users repo.UserRepository, cfg config.Config) *AuthUsecase {
	return &AuthUsecase{users: users, cfg: cfg}
}

type UserDTO struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

type RegisterInput struct {
	Email    string
	Password string
	Nickname string
}

type LoginOutput struct {
	User        UserDTO `json:"user"`
	AccessToken string  `json:"access_token"`
	ExpiresIn   int     `json:"expires_in"`
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserDTO, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(in.Password) < 8 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "password too short")
	}

	existing, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing != nil {
		return UserDTO{}, NewHTTPError(http.StatusConflict, "email already used")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := model.User{
		Email:        email,
		Nickname:     strings.TrimSpace(in.Nickname),
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := u.users.Create(ctx, &user); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toUserDTO(user), nil
}

func (u *AuthUsecase) Login(ctx context.Context, email, password string) (LoginOutput, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "invalid input")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//未登録と誤パスワードは同じ401にする
	if user == nil || !user.IsActive {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	now := time.Now()
	token, err := u.issueAccessToken(user, now)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return LoginOutput{
		User:        toUserDTO(*user),
		AccessToken: token,
		ExpiresIn:   int(accessTokenTTL.Seconds()),
	}, nil
}

func (u *AuthUsecase) issueAccessToken(user *model.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(u.cfg.JWTSecret))
}

func toUserDTO(user model.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
		Role:     string(user.Role),
	}
}
