// internal/service/catalog/domain/errors.go
package domain

import "sportshub/internal/pkg/apperr"

var ErrListingNotFound = apperr.NotFound("listing not found")
