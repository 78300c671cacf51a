package repository

import (
	"errors"
	"fmt"
	"testing"

	repo "storefront/internal/repository"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateWriteErr(t *testing.T) {
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "idx_carts_user_id"}
	check := &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "chk_cart_items_quantity"}
	plain := errors.New("connection reset by peer")

	tests := []struct {
		name      string
		err       error
		duplicate bool
	}{
		{name: "unique violation", err: unique, duplicate: true},
		{name: "wrapped unique violation", err: fmt.Errorf("insert cart: %w", unique), duplicate: true},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, duplicate: true},
		{name: "check violation", err: check},
		{name: "other error", err: plain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateWriteErr(tt.err)
			if tt.duplicate {
				assert.ErrorIs(t, got, repo.ErrDuplicate)
				return
			}
			assert.NotErrorIs(t, got, repo.ErrDuplicate)
			//それ以外は加工せずそのまま
			assert.Same(t, tt.err, got)
		})
	}
}

func TestTranslateWriteErr_Nil(t *testing.T) {
	assert.NoError(t, translateWriteErr(nil))
}
