package order

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// DeliveryStatus 履约状态
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryShipped   DeliveryStatus = "shipped"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCompleted DeliveryStatus = "completed"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// Role 状态边的执行角色
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleSystem Role = "system"
)

// Edge 一条履约状态边及允许触发它的角色
type Edge struct {
	From DeliveryStatus
	To   DeliveryStatus
	Role Role
}

// deliveryEdges 履约状态机，所有合法转移以数据表达：
//
//	pending   → shipped    （卖家发货）
//	shipped   → delivered  （卖家送达）
//	shipped   → completed  （买家确认收货）
//	delivered → completed  （买家确认收货）
//	pending   → cancelled  （买家取消，仅限未发货）
//
// 新增边只需要改这张表。completed / cancelled 为终态。
var deliveryEdges = []Edge{
	{DeliveryPending, DeliveryShipped, RoleSeller},
	{DeliveryShipped, DeliveryDelivered, RoleSeller},
	{DeliveryShipped, DeliveryCompleted, RoleBuyer},
	{DeliveryDelivered, DeliveryCompleted, RoleBuyer},
	{DeliveryPending, DeliveryCancelled, RoleBuyer},
}

// CanTransition 该边是否存在（不区分角色）
func CanTransition(from, to DeliveryStatus) bool {
	for _, e := range deliveryEdges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// RoleFor 返回触发 from→to 所需的角色，边不存在时 ok 为 false
func RoleFor(from, to DeliveryStatus) (Role, bool) {
	for _, e := range deliveryEdges {
		if e.From == from && e.To == to {
			return e.Role, true
		}
	}
	return "", false
}

// IsTerminal 是否终态
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryCompleted || s == DeliveryCancelled
}
