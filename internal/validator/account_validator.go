package validator

import "strings"

type RegisterInput struct {
	Username  string `json:"username" validate:"required,max=150"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password1 string `json:"password1" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required,eqfield=Password1"`
}

func Register(in RegisterInput) (RegisterInput, Errors) {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if errs := check(in); errs != nil {
		return RegisterInput{}, errs
	}
	return in, nil
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func Login(in LoginInput) (LoginInput, Errors) {
	in.Username = strings.TrimSpace(in.Username)
	if errs := check(in); errs != nil {
		return LoginInput{}, errs
	}
	return in, nil
}

type ProfileInput struct {
	Username  string `json:"username" validate:"required,max=150"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
}

func Profile(in ProfileInput) (ProfileInput, Errors) {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if errs := check(in); errs != nil {
		return ProfileInput{}, errs
	}
	return in, nil
}

// 旧パスワードの照合はusecase側（DBが必要）
type PasswordChangeInput struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword1 string `json:"new_password1" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required,eqfield=NewPassword1"`
}

func PasswordChange(in PasswordChangeInput) (PasswordChangeInput, Errors) {
	if errs := check(in); errs != nil {
		return PasswordChangeInput{}, errs
	}
	return in, nil
}
