package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gharseva/server/internal/module/payment/domain"
	"github.com/gharseva/server/internal/module/payment/provider"
)

func TestProviderRegistry(t *testing.T) {
	r := NewProviderRegistry()
	r.Register(provider.NewMockAdapter())
	r.Register(provider.NewOfflineAdapter())

	t.Run("get by name", func(t *testing.T) {
		a, err := r.Get("mock")
		require.NoError(t, err)
		assert.Equal(t, "mock", a.Name())

		_, err = r.Get("stripe")
		assert.Error(t, err)
	})

	t.Run("first registration claims the method", func(t *testing.T) {
		a, err := r.GetByMethod(domain.MethodCOD)
		require.NoError(t, err)
		assert.Equal(t, "mock", a.Name())
	})

	t.Run("unrouted method", func(t *testing.T) {
		_, err := r.GetByMethod(domain.Method("crypto"))
		assert.Error(t, err)
	})

	t.Run("list is sorted", func(t *testing.T) {
		assert.Equal(t, []string{"mock", "offline"}, r.List())
	})

	t.Run("refunder surface", func(t *testing.T) {
		_, err := r.GetRefunder("mock")
		require.NoError(t, err)

		_, err = r.GetRefunder("offline")
		assert.Error(t, err)
	})

	t.Run("routing table", func(t *testing.T) {
		methods := r.Methods()
		assert.Equal(t, "mock", methods[domain.MethodCard])
		assert.Equal(t, "mock", methods[domain.MethodUPI])
	})
}
