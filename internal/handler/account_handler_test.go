package handler_test

import (
	"net/http"
	"testing"

	"storefront/internal/handler"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountAPI_RegisterLoginMe(t *testing.T) {
	a := newTestAPI(t, nil)

	rec := a.do(t, http.MethodPost, "/api/auth/register", "", validator.RegisterInput{
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     "alice@example.com",
		Password1: "wonderland1",
		Password2: "wonderland1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[usecase.AuthOutput](t, rec)
	assert.NotEmpty(t, reg.Token)

	rec = a.do(t, http.MethodPost, "/api/auth/login", "", validator.LoginInput{Username: "alice", Password: "wonderland1"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[usecase.AuthOutput](t, rec)

	rec = a.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[usecase.UserDTO](t, rec)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)

	rec = a.do(t, http.MethodPut, "/api/auth/me", login.Token, validator.ProfileInput{Username: "alice", Email: "new@example.com", FirstName: "Al"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new@example.com", decode[usecase.UserDTO](t, rec).Email)
}

func TestAccountAPI_LoginFails(t *testing.T) {
	a := newTestAPI(t, nil)

	rec := a.do(t, http.MethodPost, "/api/auth/login", "", validator.LoginInput{Username: "ghost", Password: "whatever1"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", decode[handler.ErrorResponse](t, rec).Message)
}

func TestAccountAPI_RegisterValidation(t *testing.T) {
	a := newTestAPI(t, nil)

	rec := a.do(t, http.MethodPost, "/api/auth/register", "", validator.RegisterInput{Username: "bob"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[handler.ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", body.Error)
	assert.NotEmpty(t, body.Fields.Field("email"))
	assert.NotEmpty(t, body.Fields.Field("password1"))
}

// パスワード変更で古いトークンは使えなくなる
func TestAccountAPI_ChangePasswordRevokesOldToken(t *testing.T) {
	a := newTestAPI(t, nil)
	rec := a.do(t, http.MethodPost, "/api/auth/register", "", validator.RegisterInput{
		Username: "alice", FirstName: "A", LastName: "L", Email: "a@example.com", Password1: "wonderland1", Password2: "wonderland1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	old := decode[usecase.AuthOutput](t, rec).Token

	rec = a.do(t, http.MethodPost, "/api/auth/password", old, validator.PasswordChangeInput{
		OldPassword: "wonderland1", NewPassword1: "lookingglass", NewPassword2: "lookingglass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fresh := decode[usecase.AuthOutput](t, rec).Token

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/auth/me", old, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/auth/me", fresh, nil).Code)
}
