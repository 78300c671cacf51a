package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
)

type loginView struct {
	Username string
	Next     string
}

type registerView struct {
	Form   validator.RegisterInput
	Errors validator.Errors
}

type profileView struct {
	Tab     string
	Profile usecase.UserDTO
	Orders  []usecase.OrderOutput
}

func (p *Pages) loginForm(c echo.Context) error {
	return p.render(c, http.StatusOK, "login.html", "Log in", loginView{Next: c.QueryParam("next")})
}

func (p *Pages) login(c echo.Context) error {
	in := validator.LoginInput{
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}
	next := c.FormValue("next")

	out, err := p.account.Login(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) || errors.Is(err, usecase.ErrValidation) || errors.Is(err, usecase.ErrForbidden) {
			addFlash(c, FlashError, "Invalid username or password")
			return p.render(c, http.StatusOK, "login.html", "Log in", loginView{Username: in.Username, Next: next})
		}
		return p.fail(c, err)
	}

	middleware.SetSessionCookie(c, out.Token, out.ExpiresAt, p.cookieSecure)
	addFlash(c, FlashSuccess, fmt.Sprintf("Welcome, %s!", out.User.Username))
	return redirect(c, safeNext(next, "/"))
}

func (p *Pages) registerForm(c echo.Context) error {
	return p.render(c, http.StatusOK, "register.html", "Register", registerView{})
}

func (p *Pages) register(c echo.Context) error {
	in := validator.RegisterInput{
		Username:  c.FormValue("username"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Email:     c.FormValue("email"),
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	}

	out, err := p.account.Register(c.Request().Context(), in)
	if err != nil {
		if ae, ok := usecase.AsError(err); ok && ae.Kind == usecase.KindValidation {
			//パスワードは戻さない
			in.Password1, in.Password2 = "", ""
			return p.render(c, http.StatusOK, "register.html", "Register", registerView{Form: in, Errors: ae.Fields})
		}
		return p.fail(c, err)
	}

	middleware.SetSessionCookie(c, out.Token, out.ExpiresAt, p.cookieSecure)
	addFlash(c, FlashSuccess, "Registration successful!")
	return redirect(c, "/")
}

func (p *Pages) logout(c echo.Context) error {
	middleware.ClearSessionCookie(c, p.cookieSecure)
	addFlash(c, FlashInfo, "You have been logged out.")
	return redirect(c, "/")
}

// GET /profile?tab=orders|profile|password
func (p *Pages) profile(c echo.Context) error {
	ctx := c.Request().Context()
	userID := p.userID(c)

	tab := c.QueryParam("tab")
	switch tab {
	case "orders", "profile", "password":
	default:
		tab = "orders"
	}

	me, err := p.account.Profile(ctx, userID)
	if err != nil {
		return p.fail(c, err)
	}
	orders, err := p.orders.ListOrders(ctx, userID)
	if err != nil {
		return p.fail(c, err)
	}

	return p.render(c, http.StatusOK, "profile.html", "Profile", profileView{Tab: tab, Profile: me, Orders: orders})
}

func (p *Pages) updateProfile(c echo.Context) error {
	_, err := p.account.UpdateProfile(c.Request().Context(), p.userID(c), validator.ProfileInput{
		Username:  c.FormValue("username"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Email:     c.FormValue("email"),
	})
	if err != nil {
		ae, ok := usecase.AsError(err)
		if !ok || ae.Kind != usecase.KindValidation {
			return p.fail(c, err)
		}
		for _, fe := range ae.Fields {
			addFlash(c, FlashError, fe.Field+": "+fe.Message)
		}
		return redirect(c, "/profile?tab=profile")
	}

	addFlash(c, FlashSuccess, "Profile updated successfully!")
	return redirect(c, "/profile?tab=profile")
}

// 成功したら新しいセッションに差し替える（他の端末はログアウト）
func (p *Pages) changePassword(c echo.Context) error {
	out, err := p.account.ChangePassword(c.Request().Context(), p.userID(c), validator.PasswordChangeInput{
		OldPassword:  c.FormValue("old_password"),
		NewPassword1: c.FormValue("new_password1"),
		NewPassword2: c.FormValue("new_password2"),
	})
	if err != nil {
		ae, ok := usecase.AsError(err)
		if !ok || ae.Kind != usecase.KindValidation {
			return p.fail(c, err)
		}
		for _, fe := range ae.Fields {
			addFlash(c, FlashError, fe.Field+": "+fe.Message)
		}
		return redirect(c, "/profile?tab=password")
	}

	middleware.SetSessionCookie(c, out.Token, out.ExpiresAt, p.cookieSecure)
	addFlash(c, FlashSuccess, "Password changed successfully!")
	return redirect(c, "/")
}

// 他人の注文は404
func (p *Pages) orderDetail(c echo.Context) error {
	orderID, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	out, err := p.orders.GetOrder(c.Request().Context(), p.userID(c), orderID)
	if err != nil {
		return p.fail(c, err)
	}
	return p.render(c, http.StatusOK, "order_detail.html", fmt.Sprintf("Order #%d", out.ID), out)
}
