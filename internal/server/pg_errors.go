package server

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
)

const (
	pgCheckViolation  = "23514"
	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
)

func pgErrorCode(err error) string {
	if pgErr, ok := errors.AsType[*pgconn.PgError](err); ok && pgErr != nil {
		return strings.TrimSpace(pgErr.Code)
	}
	return ""
}

func pgConstraint(err error) string {
	if pgErr, ok := errors.AsType[*pgconn.PgError](err); ok && pgErr != nil {
		return strings.TrimSpace(pgErr.ConstraintName)
	}
	return ""
}

func isPgInvalidInput(err error) bool {
	switch pgErrorCode(err) {
	case "22P02", "22003", "22007", "22008":
		return true
	default:
		return false
	}
}

// stablePgCode maps known constraint violations to domain codes. The
// second result is false for anything else.
func stablePgCode(err error) (string, bool) {
	switch pgErrorCode(err) {
	case pgCheckViolation:
		switch pgConstraint(err) {
		case "products_stock_nonnegative":
			return salestypes.CodeInsufficientStock, true
		case "products_price_positive":
			return "PRICE_INVALID", true
		case "order_items_quantity_positive":
			return salestypes.CodeInvalidQuantity, true
		}
	case pgFKViolation:
		switch pgConstraint(err) {
		case "orders_client_fk":
			return salestypes.CodeClientNotFound, true
		case "order_items_product_fk":
			return salestypes.CodeProductNotFound, true
		}
	case pgUniqueViolation:
		return "DUPLICATE", true
	}
	return "", false
}

func isStableCode(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" || code == "UNKNOWN" {
		return false
	}
	for i := 0; i < len(code); i++ {
		ch := code[i]
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' {
			continue
		}
		return false
	}
	return true
}
