package usecase

import (
	"context"
	"net/http"
	"testing"

	"app/internal/config"
	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret"}
}

func TestRegister_Validation(t *testing.T) {
	uc := NewAuthUsecase(new(UserRepoMock), testConfig())
	ctx := context.Background()

	_, err := uc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "password123"})
	assertHTTPError(t, err, http.StatusBadRequest)

	_, err = uc.Register(ctx, RegisterInput{Email: "hanako@example.com", Password: "short"})
	assertHTTPError(t, err, http.StatusBadRequest)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "hanako@example.com").Return(&model.User{ID: 1}, nil)

	uc := NewAuthUsecase(users, testConfig())

	_, err := uc.Register(context.Background(), RegisterInput{Email: "hanako@example.com", Password: "password123"})
	assertHTTPError(t, err, http.StatusConflict)
}

func TestRegister_Success(t *testing.T) {
	users := new(UserRepoMock)
	//メールは小文字へ正規化される
	users.On("FindByEmail", mock.Anything, "hanako@example.com").Return(nil, nil)

	var created *model.User
	users.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created, _ = args.Get(1).(*model.User)
	}).Return(nil)

	uc := NewAuthUsecase(users, testConfig())

	out, err := uc.Register(context.Background(), RegisterInput{Email: "Hanako@Example.com", Password: "password123", Nickname: " はなこ "})
	assert.NoError(t, err)
	assert.Equal(t, "hanako@example.com", out.Email)
	assert.Equal(t, "はなこ", out.Nickname)
	assert.Equal(t, string(model.RoleUser), out.Role)

	if assert.NotNil(t, created) {
		assert.True(t, created.IsActive)
		//平文は保存しない
		assert.NotEqual(t, "password123", created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("password123")))
	}
}

func TestLogin_UnknownUserAndWrongPassword(t *testing.T) {
	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	users.On("FindByEmail", mock.Anything, "hanako@example.com").Return(&model.User{
		ID: 1, Email: "hanako@example.com", PasswordHash: string(hash), Role: model.RoleUser, IsActive: true,
	}, nil)

	uc := NewAuthUsecase(users, testConfig())
	ctx := context.Background()

	//未登録も誤パスワードも同じ401
	_, err := uc.Login(ctx, "nobody@example.com", "password123")
	assertHTTPError(t, err, http.StatusUnauthorized)

	_, err = uc.Login(ctx, "hanako@example.com", "wrong-password")
	assertHTTPError(t, err, http.StatusUnauthorized)
}

func TestLogin_InactiveUserRejected(t *testing.T) {
	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "hanako@example.com").Return(&model.User{
		ID: 1, Email: "hanako@example.com", IsActive: false,
	}, nil)

	uc := NewAuthUsecase(users, testConfig())

	_, err := uc.Login(context.Background(), "hanako@example.com", "password123")
	assertHTTPError(t, err, http.StatusUnauthorized)
}

func TestLogin_Success(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "hanako@example.com").Return(&model.User{
		ID: 1, Email: "hanako@example.com", Nickname: "はなこ", PasswordHash: string(hash), Role: model.RoleUser, IsActive: true,
	}, nil)
	users.On("Update", mock.Anything, mock.Anything).Return(nil)

	uc := NewAuthUsecase(users, testConfig())

	out, err := uc.Login(context.Background(), "hanako@example.com", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.Equal(t, int64(1), out.User.ID)
	assert.Equal(t, int(accessTokenTTL.Seconds()), out.ExpiresIn)
	//最終ログインの更新も走る
	users.AssertCalled(t, "Update", mock.Anything, mock.Anything)
}
