package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain/model"
	"storefront/internal/infra/memory"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newAccountUsecase(t *testing.T) (*usecase.AccountUsecase, *memory.Store, *auth.Issuer) {
	t.Helper()

	s := memory.NewStore()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	uc := usecase.NewAccountUsecase(s.Users(), usecase.NewBcryptPasswordHasher(bcrypt.MinCost), issuer, fixedClock{now: time.Now()})
	return uc, s, issuer
}

func registerInput(username string) validator.RegisterInput {
	return validator.RegisterInput{
		Username:  username,
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     strings.TrimSpace(username) + "@example.com",
		Password1: "wonderland1",
		Password2: "wonderland1",
	}
}

func TestAccountUsecase_Register(t *testing.T) {
	uc, s, issuer := newAccountUsecase(t)
	ctx := context.Background()

	out, err := uc.Register(ctx, registerInput(" alice "))
	require.NoError(t, err)
	assert.Equal(t, "alice", out.User.Username)
	assert.Equal(t, "alice@example.com", out.User.Email)
	assert.False(t, out.User.IsStaff)
	assert.NotEmpty(t, out.Token)

	claims, err := issuer.Parse(out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)

	//平文では保存しない
	u, err := s.Users().FindByID(ctx, out.User.ID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.NotEqual(t, "wonderland1", u.PasswordHash)
}

func TestAccountUsecase_Register_Validation(t *testing.T) {
	uc, _, _ := newAccountUsecase(t)
	ctx := context.Background()

	in := registerInput("alice")
	in.Password2 = "different1"
	_, err := uc.Register(ctx, in)
	assertKind(t, err, usecase.ErrValidation)
	appErr, _ := usecase.AsError(err)
	assert.Equal(t, "passwords do not match", appErr.Fields.Field("password2"))

	in = registerInput("alice")
	in.Email = "not-an-email"
	_, err = uc.Register(ctx, in)
	assertKind(t, err, usecase.ErrValidation)
}

func TestAccountUsecase_Register_DuplicateUsername(t *testing.T) {
	uc, _, _ := newAccountUsecase(t)
	ctx := context.Background()

	_, err := uc.Register(ctx, registerInput("alice"))
	require.NoError(t, err)

	_, err = uc.Register(ctx, registerInput("alice"))
	assertKind(t, err, usecase.ErrValidation)
	appErr, _ := usecase.AsError(err)
	assert.Equal(t, "a user with that username already exists", appErr.Fields.Field("username"))
}

func TestAccountUsecase_Login(t *testing.T) {
	uc, s, _ := newAccountUsecase(t)
	ctx := context.Background()
	reg, err := uc.Register(ctx, registerInput("alice"))
	require.NoError(t, err)

	out, err := uc.Login(ctx, validator.LoginInput{Username: "alice", Password: "wonderland1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, out.User.ID)

	u, err := s.Users().FindByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, u.LastLoginAt)
}

func TestAccountUsecase_Login_Failures(t *testing.T) {
	uc, s, _ := newAccountUsecase(t)
	ctx := context.Background()
	reg, err := uc.Register(ctx, registerInput("alice"))
	require.NoError(t, err)

	//ユーザー名違いとパスワード違いは同じエラー
	_, wrongPass := uc.Login(ctx, validator.LoginInput{Username: "alice", Password: "nope-nope"})
	_, noUser := uc.Login(ctx, validator.LoginInput{Username: "nobody", Password: "wonderland1"})
	assertKind(t, wrongPass, usecase.ErrUnauthorized)
	assert.Equal(t, wrongPass.Error(), noUser.Error())

	_, err = uc.Login(ctx, validator.LoginInput{})
	assertKind(t, err, usecase.ErrValidation)

	u, err := s.Users().FindByID(ctx, reg.User.ID)
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, s.Users().Update(ctx, u))

	_, err = uc.Login(ctx, validator.LoginInput{Username: "alice", Password: "wonderland1"})
	assertKind(t, err, usecase.ErrForbidden)
}

func TestAccountUsecase_UpdateProfile(t *testing.T) {
	uc, _, _ := newAccountUsecase(t)
	ctx := context.Background()
	alice, err := uc.Register(ctx, registerInput("alice"))
	require.NoError(t, err)
	_, err = uc.Register(ctx, registerInput("bob"))
	require.NoError(t, err)

	out, err := uc.UpdateProfile(ctx, alice.User.ID, validator.ProfileInput{Username: "alice2", Email: "a2@example.com", FirstName: "A"})
	require.NoError(t, err)
	assert.Equal(t, "alice2", out.Username)
	assert.Equal(t, "a2@example.com", out.Email)

	_, err = uc.UpdateProfile(ctx, alice.User.ID, validator.ProfileInput{Username: "bob", Email: "a2@example.com"})
	assertKind(t, err, usecase.ErrValidation)

	got, err := uc.Profile(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)

	_, err = uc.Profile(ctx, 4242)
	assertKind(t, err, usecase.ErrUnauthorized)
}

func TestAccountUsecase_ChangePassword(t *testing.T) {
	uc, s, issuer := newAccountUsecase(t)
	ctx := context.Background()
	reg, err := uc.Register(ctx, registerInput("alice"))
	require.NoError(t, err)

	_, err = uc.ChangePassword(ctx, reg.User.ID, validator.PasswordChangeInput{OldPassword: "wrong-old", NewPassword1: "newsecret1", NewPassword2: "newsecret1"})
	assertKind(t, err, usecase.ErrValidation)
	appErr, _ := usecase.AsError(err)
	assert.Equal(t, "old password is incorrect", appErr.Fields.Field("old_password"))

	out, err := uc.ChangePassword(ctx, reg.User.ID, validator.PasswordChangeInput{OldPassword: "wonderland1", NewPassword1: "newsecret1", NewPassword2: "newsecret1"})
	require.NoError(t, err)

	//token_versionが上がり、古いトークンとは世代が違う
	oldClaims, err := issuer.Parse(reg.Token)
	require.NoError(t, err)
	newClaims, err := issuer.Parse(out.Token)
	require.NoError(t, err)
	assert.Equal(t, oldClaims.TokenVersion+1, newClaims.TokenVersion)

	u, err := s.Users().FindByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, newClaims.TokenVersion, u.TokenVersion)

	_, err = uc.Login(ctx, validator.LoginInput{Username: "alice", Password: "wonderland1"})
	assertKind(t, err, usecase.ErrUnauthorized)
	_, err = uc.Login(ctx, validator.LoginInput{Username: "alice", Password: "newsecret1"})
	require.NoError(t, err)
}
