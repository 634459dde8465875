package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartTotal(t *testing.T) {
	c := &Cart{
		SessionID: "sess-1",
		Items: []Item{
			{ServiceID: "svc-clean", Quantity: 2, UnitPrice: 49900},
			{ServiceID: "svc-repair", Quantity: 1, UnitPrice: 129900},
		},
	}
	assert.Equal(t, int64(2*49900+129900), c.Total())

	empty := &Cart{SessionID: "sess-2"}
	assert.Zero(t, empty.Total())
}
