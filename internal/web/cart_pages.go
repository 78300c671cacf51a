package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type checkoutView struct {
	Cart            usecase.CartOutput
	ShippingAddress string
	Errors          validator.Errors
}

// 未ログインなら空のカートを表示
func (p *Pages) cartPage(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return p.render(c, http.StatusOK, "cart.html", "Cart", usecase.CartOutput{Items: []usecase.CartItemOutput{}})
	}

	out, err := p.cart.GetCart(c.Request().Context(), userID)
	if err != nil {
		return p.fail(c, err)
	}
	return p.render(c, http.StatusOK, "cart.html", "Cart", out)
}

// POST /cart/add/:product_id（quantity省略時は1）
func (p *Pages) addToCart(c echo.Context) error {
	productID, _ := strconv.ParseInt(c.Param("product_id"), 10, 64)

	qty := int64(1)
	if v := strings.TrimSpace(c.FormValue("quantity")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			addFlash(c, FlashError, "Enter a valid quantity")
			return redirect(c, safeNext(c.FormValue("next"), "/products"))
		}
		qty = n
	}

	out, err := p.cart.AddItem(c.Request().Context(), p.userID(c), usecase.AddItemInput{ProductID: productID, Quantity: qty})
	switch {
	case err == nil:
		addFlash(c, FlashSuccess, fmt.Sprintf("%q added to cart", out.ProductName))
	case errors.Is(err, usecase.ErrNotFound):
		addFlash(c, FlashError, "Product not found")
	case errors.Is(err, usecase.ErrValidation):
		addFlash(c, FlashError, "Enter a valid quantity")
	default:
		return p.fail(c, err)
	}
	return redirect(c, safeNext(c.FormValue("next"), "/products"))
}

// POST /cart/items/:id/update（action=increase|decrease|set）
func (p *Pages) updateCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	itemID, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	userID := p.userID(c)

	var (
		out usecase.CartMutation
		err error
	)
	action := c.FormValue("action")
	switch action {
	case "increase":
		out, err = p.cart.Increase(ctx, userID, itemID)
	case "decrease":
		out, err = p.cart.Decrease(ctx, userID, itemID)
	case "set":
		qty, convErr := strconv.ParseInt(strings.TrimSpace(c.FormValue("quantity")), 10, 64)
		if convErr != nil {
			addFlash(c, FlashError, "Enter a valid quantity")
			return redirect(c, "/cart")
		}
		out, err = p.cart.SetQuantity(ctx, userID, itemID, qty)
	default:
		addFlash(c, FlashError, "Unknown action")
		return redirect(c, "/cart")
	}

	if errors.Is(err, usecase.ErrNotFound) {
		addFlash(c, FlashError, "Item not found in cart")
		return redirect(c, "/cart")
	}
	if err != nil {
		return p.fail(c, err)
	}

	switch {
	case out.Removed:
		addFlash(c, FlashSuccess, fmt.Sprintf("%q removed from cart", out.ProductName))
	case action == "increase":
		addFlash(c, FlashSuccess, fmt.Sprintf("Quantity of %q increased to %d", out.ProductName, out.Quantity))
	case action == "decrease":
		addFlash(c, FlashSuccess, fmt.Sprintf("Quantity of %q decreased to %d", out.ProductName, out.Quantity))
	default:
		addFlash(c, FlashSuccess, fmt.Sprintf("Quantity of %q changed to %d", out.ProductName, out.Quantity))
	}
	return redirect(c, "/cart")
}

func (p *Pages) removeCartItem(c echo.Context) error {
	itemID, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	out, err := p.cart.RemoveItem(c.Request().Context(), p.userID(c), itemID)
	if errors.Is(err, usecase.ErrNotFound) {
		addFlash(c, FlashError, "Item not found in cart")
		return redirect(c, "/cart")
	}
	if err != nil {
		return p.fail(c, err)
	}
	addFlash(c, FlashSuccess, fmt.Sprintf("%q removed from cart", out.ProductName))
	return redirect(c, "/cart")
}

func (p *Pages) clearCart(c echo.Context) error {
	n, err := p.cart.Clear(c.Request().Context(), p.userID(c))
	if err != nil {
		return p.fail(c, err)
	}
	if n == 0 {
		addFlash(c, FlashInfo, "Your cart is already empty")
	} else {
		addFlash(c, FlashSuccess, "Cart cleared")
	}
	return redirect(c, "/cart")
}

func (p *Pages) checkoutForm(c echo.Context) error {
	out, err := p.cart.GetCart(c.Request().Context(), p.userID(c))
	if err != nil {
		return p.fail(c, err)
	}
	if len(out.Items) == 0 {
		addFlash(c, FlashWarning, "Your cart is empty")
		return redirect(c, "/cart")
	}
	return p.render(c, http.StatusOK, "checkout.html", "Checkout", checkoutView{Cart: out})
}

func (p *Pages) placeOrder(c echo.Context) error {
	ctx := c.Request().Context()
	userID := p.userID(c)
	address := c.FormValue("shipping_address")

	order, err := p.checkout.Checkout(ctx, userID, usecase.CheckoutInput{ShippingAddress: address})
	if err == nil {
		addFlash(c, FlashSuccess, fmt.Sprintf("Order #%d placed successfully!", order.ID))
		return redirect(c, "/profile")
	}

	ae, _ := usecase.AsError(err)
	switch {
	case errors.Is(err, usecase.ErrEmptyCart):
		addFlash(c, FlashWarning, "Your cart is empty")
		return redirect(c, "/cart")
	case errors.Is(err, usecase.ErrValidation):
		cart, cerr := p.cart.GetCart(ctx, userID)
		if cerr != nil {
			return p.fail(c, cerr)
		}
		addFlash(c, FlashError, "Please provide a shipping address")
		return p.render(c, http.StatusBadRequest, "checkout.html", "Checkout", checkoutView{
			Cart:            cart,
			ShippingAddress: address,
			Errors:          ae.Fields,
		})
	default:
		//ロールバック済みなのでカートはそのまま
		log.Error().Err(err).Int64("user_id", userID).Msg("checkout failed")
		addFlash(c, FlashError, "Something went wrong while placing your order. Please try again.")
		return redirect(c, "/checkout")
	}
}
