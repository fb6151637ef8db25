package service

import "errors"

// 账本操作的错误分类，路由层据此映射 HTTP 状态码。
// 所有校验在任何写入之前完成，失败的操作不落任何变更。
var (
	// ErrNotFound 实体 ID 无法解析
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized 操作者不具备该状态边要求的角色
	ErrUnauthorized = errors.New("not allowed for this actor")
	// ErrInvalidActor 买家与卖家不能是同一人
	ErrInvalidActor = errors.New("cannot order your own listing")
	// ErrInvalidTransition 当前状态下不存在请求的状态边
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrProductUnavailable 商品不在售
	ErrProductUnavailable = errors.New("product is not available")
	// ErrMissingRecipientCode 卖家未注册转账收款人
	ErrMissingRecipientCode = errors.New("no transfer recipient registered, set up bank details first")
	// ErrNoEligibleOrders 没有已完成且已支付、尚未提现的订单
	ErrNoEligibleOrders = errors.New("no eligible completed orders to pay out")
	// ErrAmountExceedsProceeds 提现金额超过可提余额
	ErrAmountExceedsProceeds = errors.New("amount exceeds available proceeds")
)
