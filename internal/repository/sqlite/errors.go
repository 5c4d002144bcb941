package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
)

// mapError translates a raw database/sql or sqlite driver error into the
// OrchestrationError vocabulary (§7). sql.ErrNoRows becomes NOT_FOUND;
// UNIQUE constraint violations become DUPLICATE_NAME; anything else is
// wrapped INTERNAL_ERROR so callers never see a bare driver error.
func mapError(kind, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return orcherrors.NotFoundErr(kind, id)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return orcherrors.DuplicateNameErr(kind, id)
	}
	return orcherrors.Wrap(orcherrors.InternalError, "storage operation failed", err)
}
