package database

import (
	"github.com/lib/pq"
	"github.com/medflow/pos-allocation/pkg/errors"
)

// LookupError converts a failed ledger/catalog query into a LOOKUP_ERROR.
// PostgreSQL errors carry their SQLSTATE so operators can tell an outage
// (class 08, 57) from a schema mismatch (class 42) or unreadable data (class 22).
func LookupError(resource string, err error) *errors.AppError {
	appErr := errors.Lookup(resource, err)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		appErr.WithDetails(map[string]string{
			"sqlstate": string(pqErr.Code),
			"class":    pqErr.Code.Class().Name(),
		})
	}

	return appErr
}
