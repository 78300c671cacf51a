package usecase

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"golang.org/x/crypto/bcrypt"
)

// アクセストークンを発行する約束
type TokenIssuer interface {
	Issue(user model.User, now time.Time) (token string, expiresAt time.Time, err error)
}

// 平文パスワード⇔ハッシュ
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain string, hashed string) bool
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost: cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptPasswordHasher) Verify(plain string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

type UserDTO struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsStaff   bool   `json:"is_staff"`
}

func toUserDTO(u model.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsAdmin(),
	}
}

// 登録・ログイン・パスワード変更の結果
type AuthOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

// 会員登録・ログイン・プロフィール
type AccountUsecase struct {
	users  repo.UserRepository
	hasher PasswordHasher
	issuer TokenIssuer
	clock  Clock
}

// DI
func NewAccountUsecase(users repo.UserRepository, hasher PasswordHasher, issuer TokenIssuer, clock Clock) *AccountUsecase {
	return &AccountUsecase{users: users, hasher: hasher, issuer: issuer, clock: clock}
}

func (u *AccountUsecase) Register(ctx context.Context, in validator.RegisterInput) (AuthOutput, error) {
	valid, errs := validator.Register(in)
	if errs != nil {
		return AuthOutput{}, validationError(errs)
	}

	//パスワードは必ずハッシュ化して保存
	hashed, err := u.hasher.Hash(valid.Password1)
	if err != nil {
		return AuthOutput{}, storeError(err)
	}

	user := &model.User{
		Username:     valid.Username,
		Email:        valid.Email,
		FirstName:    valid.FirstName,
		LastName:     valid.LastName,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return AuthOutput{}, validationError(validator.Errors{{Field: "username", Message: "a user with that username already exists"}})
		}
		return AuthOutput{}, storeError(err)
	}

	return u.issue(*user)
}

func (u *AccountUsecase) Login(ctx context.Context, in validator.LoginInput) (AuthOutput, error) {
	valid, errs := validator.Login(in)
	if errs != nil {
		return AuthOutput{}, validationError(errs)
	}

	user, err := u.users.FindByUsername(ctx, valid.Username)
	if err != nil {
		return AuthOutput{}, storeError(err)
	}
	if user == nil || !u.hasher.Verify(valid.Password, user.PasswordHash) {
		return AuthOutput{}, NewError(KindUnauthorized, "invalid username or password")
	}
	//停止ユーザーはログイン不可
	if !user.IsActive {
		return AuthOutput{}, NewError(KindForbidden, "user is inactive")
	}

	//last_login更新
	now := u.clock.Now()
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		return AuthOutput{}, storeError(err)
	}

	return u.issue(*user)
}

func (u *AccountUsecase) Profile(ctx context.Context, userID int64) (UserDTO, error) {
	user, err := u.findUser(ctx, userID)
	if err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(*user), nil
}

func (u *AccountUsecase) UpdateProfile(ctx context.Context, userID int64, in validator.ProfileInput) (UserDTO, error) {
	user, err := u.findUser(ctx, userID)
	if err != nil {
		return UserDTO{}, err
	}
	valid, errs := validator.Profile(in)
	if errs != nil {
		return UserDTO{}, validationError(errs)
	}

	user.Username = valid.Username
	user.Email = valid.Email
	user.FirstName = valid.FirstName
	user.LastName = valid.LastName
	if err := u.users.Update(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return UserDTO{}, validationError(validator.Errors{{Field: "username", Message: "a user with that username already exists"}})
		}
		return UserDTO{}, storeError(err)
	}
	return toUserDTO(*user), nil
}

// ChangePassword はパスワードを変更し、token_versionを上げて他のセッションを無効にする。
// 呼び出し元のセッション用に新しいトークンを返す。
func (u *AccountUsecase) ChangePassword(ctx context.Context, userID int64, in validator.PasswordChangeInput) (AuthOutput, error) {
	user, err := u.findUser(ctx, userID)
	if err != nil {
		return AuthOutput{}, err
	}

	valid, errs := validator.PasswordChange(in)
	if !u.hasher.Verify(in.OldPassword, user.PasswordHash) && in.OldPassword != "" {
		errs = append(errs, validator.FieldError{Field: "old_password", Message: "old password is incorrect"})
	}
	if errs != nil {
		return AuthOutput{}, validationError(errs)
	}

	hashed, err := u.hasher.Hash(valid.NewPassword1)
	if err != nil {
		return AuthOutput{}, storeError(err)
	}
	user.PasswordHash = hashed
	user.TokenVersion++
	if err := u.users.Update(ctx, user); err != nil {
		return AuthOutput{}, storeError(err)
	}

	return u.issue(*user)
}

func (u *AccountUsecase) findUser(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, NewError(KindUnauthorized, "unauthorized")
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	if user == nil {
		return nil, NewError(KindUnauthorized, "unauthorized")
	}
	return user, nil
}

func (u *AccountUsecase) issue(user model.User) (AuthOutput, error) {
	token, exp, err := u.issuer.Issue(user, u.clock.Now())
	if err != nil {
		return AuthOutput{}, storeError(err)
	}
	return AuthOutput{Token: token, ExpiresAt: exp, User: toUserDTO(user)}, nil
}
