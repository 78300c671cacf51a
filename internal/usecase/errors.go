package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/validator"
)

// エラーの種類（APIのerrorフィールドにそのまま出す）
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation_error"
	KindNotFound     ErrorKind = "not_found"
	KindEmptyCart    ErrorKind = "empty_cart"
	KindStore        ErrorKind = "store_error"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindConflict     ErrorKind = "conflict"
)

// errors.Is で種類だけ比べるための番兵
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrEmptyCart    = &Error{Kind: KindEmptyCart}
	ErrStore        = &Error{Kind: KindStore}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrConflict     = &Error{Kind: KindConflict}
)

type Error struct {
	Kind    ErrorKind
	Message string
	// 入力エラーのときだけ
	Fields validator.Errors
	// 原因（storeエラーなど）。利用者には出さない。
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// HTTPステータスへの対応
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindEmptyCart:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NewError(kind ErrorKind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func validationError(fields validator.Errors) error {
	return &Error{Kind: KindValidation, Message: fields.Error(), Fields: fields}
}

func notFound() error {
	return &Error{Kind: KindNotFound, Message: "not found"}
}

// DBエラーは中身を隠してstore_errorにする
func storeError(err error) error {
	return &Error{Kind: KindStore, Message: "db error", Err: err}
}

func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
