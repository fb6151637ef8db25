package payout

import "github.com/TORY-SKY/swappNaija/internal/datamodels/order"

// Status 提现状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Edge 一条提现状态边及允许触发它的角色
type Edge struct {
	From Status
	To   Status
	Role order.Role
}

// statusEdges 提现状态机：
//
//	pending    → processing （系统：网关受理转账）
//	processing → completed  （系统：网关确认到账）
//	processing → failed     （系统：网关转账失败）
//	pending    → failed     （卖家主动取消，或网关发起即失败）
//
// completed / failed 为终态。
var statusEdges = []Edge{
	{StatusPending, StatusProcessing, order.RoleSystem},
	{StatusProcessing, StatusCompleted, order.RoleSystem},
	{StatusProcessing, StatusFailed, order.RoleSystem},
	{StatusPending, StatusFailed, order.RoleSeller},
	{StatusPending, StatusFailed, order.RoleSystem},
}

// CanTransition 该边是否存在（不区分角色）
func CanTransition(from, to Status) bool {
	for _, e := range statusEdges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// Allowed 指定角色能否触发 from→to
func Allowed(from, to Status, role order.Role) bool {
	for _, e := range statusEdges {
		if e.From == from && e.To == to && e.Role == role {
			return true
		}
	}
	return false
}

// IsTerminal 是否终态
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
