package database_test

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/medflow/pos-allocation/pkg/database"
	"github.com/medflow/pos-allocation/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestLookupError_PostgresError(t *testing.T) {
	err := database.LookupError("stock quant", &pq.Error{Code: "08006", Message: "connection failure"})

	assert.True(t, errors.Is(err, errors.ErrLookup))
	assert.Equal(t, "08006", err.Details["sqlstate"])
	assert.Equal(t, "connection_exception", err.Details["class"])
}

func TestLookupError_OtherError(t *testing.T) {
	err := database.LookupError("lot", context.Canceled)

	assert.True(t, errors.Is(err, errors.ErrLookup))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, err.Details)
}
