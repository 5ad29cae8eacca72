package actor_test

import (
	"context"
	"testing"

	"github.com/medflow/pos-allocation/pkg/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithActor_RoundTrip(t *testing.T) {
	a := &actor.Actor{ID: 7, ScopeID: 1, Email: "cashier@praxis.de"}

	ctx := actor.WithActor(context.Background(), a)

	got := actor.FromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, int64(1), got.ScopeID)
}

func TestFromContext_Missing(t *testing.T) {
	assert.Nil(t, actor.FromContext(context.Background()))
}

func TestString(t *testing.T) {
	var a *actor.Actor
	assert.Equal(t, "anonymous", a.String())

	a = &actor.Actor{ID: 3, ScopeID: 2, Email: "x@y.de"}
	assert.Equal(t, "user 3 (x@y.de) in company 2", a.String())
}
