package payout

import (
	"context"
	"time"
)

// BankDetails 收款银行账户快照，申请提现时固化
type BankDetails struct {
	AccountName   string `gorm:"size:128" json:"account_name"`
	AccountNumber string `gorm:"size:32" json:"account_number"`
	BankName      string `gorm:"size:64" json:"bank_name"`
	BankCode      string `gorm:"size:16" json:"bank_code"`
}

// Payout 提现模型
type Payout struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	SellerID int64  `gorm:"index;not null" json:"seller_id"`
	Amount   int64  `gorm:"not null" json:"amount"` // kobo
	Status   Status `gorm:"size:16;index;not null" json:"status"`

	BankDetails BankDetails `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`

	// RecipientCode 申请时卖家已注册的 Paystack 收款人标识
	RecipientCode string `gorm:"size:64;not null" json:"recipient_code"`
	// TransferReference 网关受理转账后返回的引用号
	TransferReference string `gorm:"size:64" json:"transfer_reference"`

	RequestDate   time.Time  `gorm:"index" json:"request_date"`
	ProcessedDate *time.Time `json:"processed_date,omitempty"`
	Notes         string     `gorm:"size:255" json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ListOptions 提现列表查询条件
type ListOptions struct {
	SellerID int64
	Status   Status
	Limit    int
}

// Repository 提现仓储接口
type Repository interface {
	Create(ctx context.Context, p *Payout) error
	GetByID(ctx context.Context, id int64) (*Payout, error)
	List(ctx context.Context, opts ListOptions) ([]*Payout, error)
	ListRecent(ctx context.Context, limit int) ([]*Payout, error)
}
