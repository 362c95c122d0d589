package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusNext(t *testing.T) {
	cases := []struct {
		from       OrderStatus
		want       OrderStatus
		progresses bool
	}{
		{OrderStatusReceived, OrderStatusPreparing, true},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusReady, "", false},
		{OrderStatusCompleted, "", false},
	}
	for _, tc := range cases {
		next, ok := tc.from.Next()
		assert.Equal(t, tc.progresses, ok, "from %s", tc.from)
		assert.Equal(t, tc.want, next, "from %s", tc.from)
	}
}

func TestOrderStatusQueued(t *testing.T) {
	assert.True(t, OrderStatusReceived.Queued())
	assert.True(t, OrderStatusPreparing.Queued())
	assert.False(t, OrderStatusReady.Queued())
	assert.False(t, OrderStatusCompleted.Queued())
}
