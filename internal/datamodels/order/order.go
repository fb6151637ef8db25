package order

import (
	"context"
	"time"
)

// ShippingAddress 收货地址，下单时快照
type ShippingAddress struct {
	FullName    string `gorm:"size:128" json:"full_name"`
	PhoneNumber string `gorm:"size:32" json:"phone_number"`
	Street      string `gorm:"size:256" json:"street"`
	City        string `gorm:"size:64" json:"city"`
	State       string `gorm:"size:64" json:"state"`
	PostalCode  string `gorm:"size:16" json:"postal_code"`
	Country     string `gorm:"size:64" json:"country"`
}

// TrackingInfo 物流信息，卖家发货时填写
type TrackingInfo struct {
	Carrier           string `gorm:"size:64" json:"carrier"`
	TrackingNumber    string `gorm:"size:64" json:"tracking_number"`
	EstimatedDelivery string `gorm:"size:32" json:"estimated_delivery"`
}

// Order 订单模型
// Amount 为下单时的价格快照 × 数量，不跟随商品改价。
// PayoutID 非 0 表示该订单的货款已被某次提现消耗，防止重复提现。
type Order struct {
	ID               int64           `gorm:"primaryKey" json:"id"`
	BuyerID          int64           `gorm:"index;not null" json:"buyer_id"`
	SellerID         int64           `gorm:"index;not null" json:"seller_id"`
	ProductID        int64           `gorm:"index;not null" json:"product_id"`
	ProductTitle     string          `gorm:"size:128" json:"product_title"`
	ProductImage     string          `gorm:"size:512" json:"product_image"`
	Quantity         int64           `gorm:"not null" json:"quantity"`
	Amount           int64           `gorm:"not null" json:"amount"` // kobo
	PaymentStatus    PaymentStatus   `gorm:"size:16;index;not null" json:"payment_status"`
	DeliveryStatus   DeliveryStatus  `gorm:"size:16;index;not null" json:"delivery_status"`
	PaymentReference string          `gorm:"size:64" json:"payment_reference"`
	ShippingAddress  ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	TrackingInfo     TrackingInfo    `gorm:"embedded;embeddedPrefix:track_" json:"tracking_info"`
	PayoutID         int64           `gorm:"index" json:"payout_id"`
	Notes            string          `gorm:"size:255" json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ListOptions 订单列表查询条件
type ListOptions struct {
	BuyerID        int64
	SellerID       int64
	DeliveryStatus DeliveryStatus
	PaymentStatus  PaymentStatus
	Limit          int
}

// Repository 订单仓储接口
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, opts ListOptions) ([]*Order, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
}
