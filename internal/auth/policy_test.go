package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	policy := NewPolicy([]int64{42, 43})
	admins := []int64{1001, 1002}

	t.Run("super admin", func(t *testing.T) {
		assert.Equal(t, TierSuperAdmin, policy.Classify(42, admins))
	})

	t.Run("super admin wins over admin list", func(t *testing.T) {
		assert.Equal(t, TierSuperAdmin, policy.Classify(42, []int64{42}))
	})

	t.Run("runtime admin", func(t *testing.T) {
		assert.Equal(t, TierAdmin, policy.Classify(1001, admins))
	})

	t.Run("unauthorized", func(t *testing.T) {
		assert.Equal(t, TierUnauthorized, policy.Classify(9999, admins))
	})

	t.Run("empty admin list", func(t *testing.T) {
		assert.Equal(t, TierUnauthorized, policy.Classify(1001, nil))
	})
}

func TestIsAuthorized(t *testing.T) {
	policy := NewPolicy([]int64{42})

	assert.True(t, policy.IsAuthorized(42, nil))
	assert.True(t, policy.IsAuthorized(1001, []int64{1001}))
	assert.False(t, policy.IsAuthorized(9999, []int64{1001}))
}

func TestSuperAdmins(t *testing.T) {
	policy := NewPolicy([]int64{43, 42})

	assert.True(t, policy.IsSuperAdmin(42))
	assert.False(t, policy.IsSuperAdmin(1001))
	// Снимок отсортирован и не зависит от порядка конфигурации.
	assert.Equal(t, []int64{42, 43}, policy.SuperAdmins())
}
