package product

import (
	"context"
	"time"
)

// 商品状态
const (
	StatusActive   = "active"   // 在售
	StatusInactive = "inactive" // 下架
	StatusSold     = "sold"     // 已售出
)

// Product 商品（listing）模型
type Product struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	OwnerID     int64  `gorm:"index;not null" json:"owner_id"`
	Title       string `gorm:"size:128;not null" json:"title"`
	Description string `gorm:"size:1024" json:"description"`
	Price       int64  `gorm:"not null" json:"price"` // kobo
	IsFree      bool   `json:"is_free"`
	Condition   string `gorm:"size:32" json:"condition"`
	Category    string `gorm:"size:32;index" json:"category"`
	Subcategory string `gorm:"size:32" json:"subcategory"`
	Location    string `gorm:"size:128" json:"location"`
	ImageURL    string `gorm:"size:512" json:"image_url"`
	// ImageURLs 逗号分隔的多图地址，上传每张图后追加
	ImageURLs string `gorm:"size:2048" json:"image_urls"`
	Status    string `gorm:"size:16;index;not null;default:active" json:"status"`
	Featured  bool   `gorm:"index" json:"featured"`
	Views     int64  `json:"views"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// statusEdges 商品状态只允许这几条边：
// 上架 active，付款成交 active→sold，订单取消回退 sold→active，
// 卖家对自己的在售商品可做 active↔inactive 的上下架。
var statusEdges = map[string][]string{
	StatusActive:   {StatusSold, StatusInactive},
	StatusInactive: {StatusActive},
	StatusSold:     {StatusActive},
}

// CanTransition 校验商品状态边是否合法
func CanTransition(from, to string) bool {
	for _, s := range statusEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ListOptions 商品列表查询条件
type ListOptions struct {
	Category string
	Keyword  string
	Status   string
	OwnerID  int64
	FreeOnly bool
	Featured bool
	Limit    int
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, opts ListOptions) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
