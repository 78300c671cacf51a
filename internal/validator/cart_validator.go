package validator

import "strings"

type AddItemInput struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int64 `json:"quantity" validate:"gte=1"`
}

// カート追加の入力。数量は1以上
func AddItem(in AddItemInput) (AddItemInput, Errors) {
	if errs := check(in); errs != nil {
		return AddItemInput{}, errs
	}
	return in, nil
}

type CheckoutInput struct {
	ShippingAddress string `json:"shipping_address" validate:"required,max=1000"`
}

// 配送先は空白だけも不可
func Checkout(in CheckoutInput) (CheckoutInput, Errors) {
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	if errs := check(in); errs != nil {
		return CheckoutInput{}, errs
	}
	return in, nil
}
