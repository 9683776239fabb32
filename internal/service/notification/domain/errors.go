// internal/service/notification/domain/errors.go
package domain

import "sportshub/internal/pkg/apperr"

var (
	ErrNotificationNotFound = apperr.NotFound("notification not found")
	ErrNotRecipient         = apperr.Forbidden("notification belongs to another recipient")
	ErrInvalidRecipient     = apperr.Validation("recipient must be a known type with an id")
	ErrEventIDRequired      = apperr.Validation("eventId is required")
)
