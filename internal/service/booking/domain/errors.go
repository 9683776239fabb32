// internal/service/booking/domain/errors.go
package domain

import "sportshub/internal/pkg/apperr"

var (
	ErrSlotNotFound          = apperr.NotFound("slot not found")
	ErrRequestNotFound       = apperr.NotFound("slot request not found")
	ErrSlotUnavailable       = apperr.Conflict("slot is not available")
	ErrSlotOverlap           = apperr.Conflict("slot overlaps an existing slot")
	ErrRequestNotPending     = apperr.InvalidState("slot request is not pending")
	ErrRequestNotCancellable = apperr.InvalidState("slot request can no longer be cancelled")
	ErrSessionStarted        = apperr.InvalidState("session has already started")
	ErrSlotStateChanged      = apperr.InvalidState("slot state changed concurrently")
	ErrSlotNotBlockable      = apperr.InvalidState("only available slots can be blocked")
	ErrSlotNotBooked         = apperr.InvalidState("payment can only be recorded for booked slots")
	ErrNotSlotOwner          = apperr.Forbidden("actor does not own this slot")
	ErrNotParentOwner        = apperr.Forbidden("actor does not own the parent resource")
	ErrNotRequester          = apperr.Forbidden("only the requesting user can cancel this request")
	ErrRequestSlotMismatch   = apperr.Validation("request does not belong to this slot")
	ErrInvalidAction         = apperr.Validation("action must be accept or decline")
	ErrInvalidSlotWindow     = apperr.Validation("slot end time must be after start time")
	ErrInvalidPrice          = apperr.Validation("price must not be negative")
	ErrInvalidTeamSize       = apperr.Validation("team size must not be negative")
	ErrInvalidPaymentStatus  = apperr.Validation("payment status must be unpaid, paid or refunded")
	ErrUserRequired          = apperr.Validation("user id is required")
	ErrTooManyRequests       = apperr.New(apperr.KindRateLimited, "too many booking requests, slow down")
)
