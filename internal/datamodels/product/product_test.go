package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusEdges(t *testing.T) {
	assert.True(t, CanTransition(StatusActive, StatusSold))
	assert.True(t, CanTransition(StatusSold, StatusActive)) // 订单取消回退
	assert.True(t, CanTransition(StatusActive, StatusInactive))
	assert.True(t, CanTransition(StatusInactive, StatusActive))

	// 已售出的商品不能直接下架，也不能重复售出
	assert.False(t, CanTransition(StatusSold, StatusInactive))
	assert.False(t, CanTransition(StatusSold, StatusSold))
	assert.False(t, CanTransition(StatusInactive, StatusSold))
}
