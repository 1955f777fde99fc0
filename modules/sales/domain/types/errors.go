package types

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInput    ErrorKind = "input"
	KindNotFound ErrorKind = "not_found"
	KindBusiness ErrorKind = "business"
)

const (
	CodeEmptyCart             = "EMPTY_CART"
	CodeInvalidQuantity       = "INVALID_QUANTITY"
	CodeInvalidClient         = "INVALID_CLIENT"
	CodeInvalidStatusTarget   = "INVALID_STATUS_TARGET"
	CodeClientNotFound        = "CLIENT_NOT_FOUND"
	CodeProductNotFound       = "PRODUCT_NOT_FOUND"
	CodeOrderNotFound         = "ORDER_NOT_FOUND"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeAlreadyCancelled      = "ALREADY_CANCELLED"
	CodeAlreadyCompleted      = "ALREADY_COMPLETED"
	CodeIdempotencyInProgress = "IDEMPOTENCY_IN_PROGRESS"
)

// OrderError is a named, caller-correctable failure of an order operation.
// Store faults are never OrderErrors.
type OrderError struct {
	Kind        ErrorKind
	Code        string
	Message     string
	ProductName string
}

func (e *OrderError) Error() string {
	if e.ProductName != "" {
		return e.Code + ":" + e.ProductName
	}
	return e.Code
}

// Is matches on Code so errors.Is works against the sentinel constructors.
func (e *OrderError) Is(target error) bool {
	t, ok := target.(*OrderError)
	return ok && t.Code == e.Code
}

func AsOrderError(err error) (*OrderError, bool) {
	return errors.AsType[*OrderError](err)
}

// HasCode reports whether err is an OrderError with the given code.
func HasCode(err error, code string) bool {
	oe, ok := AsOrderError(err)
	return ok && oe.Code == code
}

func ErrEmptyCart() error {
	return &OrderError{Kind: KindInput, Code: CodeEmptyCart, Message: "order needs at least one item"}
}

func ErrInvalidQuantity(productID string, quantity int) error {
	return &OrderError{Kind: KindInput, Code: CodeInvalidQuantity, Message: fmt.Sprintf("quantity for product %s must be positive, got %d", productID, quantity)}
}

func ErrInvalidClient() error {
	return &OrderError{Kind: KindInput, Code: CodeInvalidClient, Message: "client_id is required"}
}

func ErrInvalidStatusTarget(target string) error {
	return &OrderError{Kind: KindInput, Code: CodeInvalidStatusTarget, Message: fmt.Sprintf("cannot move an order to %q", target)}
}

func ErrClientNotFound() error {
	return &OrderError{Kind: KindNotFound, Code: CodeClientNotFound, Message: "client not found for this tenant"}
}

func ErrProductNotFound() error {
	return &OrderError{Kind: KindNotFound, Code: CodeProductNotFound, Message: "one or more products are invalid for this tenant"}
}

func ErrOrderNotFound() error {
	return &OrderError{Kind: KindNotFound, Code: CodeOrderNotFound, Message: "order not found"}
}

func ErrInsufficientStock(productName string) error {
	return &OrderError{Kind: KindBusiness, Code: CodeInsufficientStock, Message: "insufficient stock: " + productName, ProductName: productName}
}

func ErrAlreadyCancelled() error {
	return &OrderError{Kind: KindBusiness, Code: CodeAlreadyCancelled, Message: "order is already CANCELLED"}
}

func ErrAlreadyCompleted() error {
	return &OrderError{Kind: KindBusiness, Code: CodeAlreadyCompleted, Message: "order is already COMPLETED"}
}

func ErrIdempotencyInProgress() error {
	return &OrderError{Kind: KindBusiness, Code: CodeIdempotencyInProgress, Message: "a request with this idempotency key is still in progress"}
}
