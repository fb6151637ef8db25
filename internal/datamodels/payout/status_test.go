package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TORY-SKY/swappNaija/internal/datamodels/order"
)

func TestPayoutTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusProcessing))
	assert.True(t, CanTransition(StatusProcessing, StatusCompleted))
	assert.True(t, CanTransition(StatusProcessing, StatusFailed))
	assert.True(t, CanTransition(StatusPending, StatusFailed))

	assert.False(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusFailed))
	assert.False(t, CanTransition(StatusCompleted, StatusProcessing))
	assert.False(t, CanTransition(StatusFailed, StatusPending))
	assert.False(t, CanTransition(StatusFailed, StatusProcessing))
}

func TestPayoutTransitionRoles(t *testing.T) {
	// pending → processing 只能由系统触发
	assert.True(t, Allowed(StatusPending, StatusProcessing, order.RoleSystem))
	assert.False(t, Allowed(StatusPending, StatusProcessing, order.RoleSeller))

	// pending → failed 卖家取消或网关失败都允许
	assert.True(t, Allowed(StatusPending, StatusFailed, order.RoleSeller))
	assert.True(t, Allowed(StatusPending, StatusFailed, order.RoleSystem))
	assert.False(t, Allowed(StatusPending, StatusFailed, order.RoleBuyer))

	// processing 之后只有系统边
	assert.True(t, Allowed(StatusProcessing, StatusCompleted, order.RoleSystem))
	assert.True(t, Allowed(StatusProcessing, StatusFailed, order.RoleSystem))
	assert.False(t, Allowed(StatusProcessing, StatusFailed, order.RoleSeller))
}

func TestPayoutTerminalStates(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
}
