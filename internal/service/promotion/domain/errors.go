// internal/service/promotion/domain/errors.go
package domain

import "sportshub/internal/pkg/apperr"

var (
	ErrPromotionNotFound  = apperr.NotFound("promotion transaction not found")
	ErrNotPending         = apperr.InvalidState("promotion transaction is not pending")
	ErrCheckoutLapsed     = apperr.InvalidState("promotion window has already ended")
	ErrInvalidPlan        = apperr.New(apperr.KindInvalidPlan, "promotion plan must be basic, premium or platinum")
	ErrInsufficientAmount = apperr.Validation("paid amount is less than the plan amount")
	ErrPaymentIDRequired  = apperr.Validation("paymentId is required")
	ErrSupplierRequired   = apperr.Validation("supplier id is required")
	ErrNotOwner           = apperr.Forbidden("promotion belongs to another supplier")
)
