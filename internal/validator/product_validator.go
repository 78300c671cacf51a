package validator

import (
	"strings"

	"github.com/shopspring/decimal"
)

type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Image       string          `json:"image" validate:"max=500"`
	CategoryID  *int64          `json:"category" validate:"omitempty,gt=0"`
	InStock     bool            `json:"in_stock"`
}

func Product(in ProductInput) (ProductInput, Errors) {
	in.Name = strings.TrimSpace(in.Name)
	if errs := check(in); errs != nil {
		return ProductInput{}, errs
	}
	return in, nil
}
