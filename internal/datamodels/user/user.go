package user

import (
	"context"
	"time"
)

// 用户类型：买家 / 卖家 / 两者
const (
	TypeBuyer  = "buyer"
	TypeSeller = "seller"
	TypeBoth   = "both"
)

// User 用户模型，银行卡信息通过 Paystack 校验后落库
type User struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Password string `gorm:"size:128;not null" json:"-"`
	Salt     string `gorm:"size:32;not null" json:"-"`
	Email    string `gorm:"size:128;index" json:"email"`
	Phone    string `gorm:"size:32" json:"phone"`
	UserType string `gorm:"size:16;not null;default:both" json:"user_type"`

	// 银行账户快照，ResolveAccount 校验通过后写入
	BankAccountName   string `gorm:"size:128" json:"bank_account_name"`
	BankAccountNumber string `gorm:"size:32" json:"bank_account_number"`
	BankName          string `gorm:"size:64" json:"bank_name"`
	BankCode          string `gorm:"size:16" json:"bank_code"`

	// RecipientCode Paystack 转账收款人标识，提现前必须存在
	RecipientCode string `gorm:"size:64" json:"recipient_code"`

	Verified  bool `json:"verified"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRecipientCode 是否已注册转账收款人
func (u *User) HasRecipientCode() bool {
	return u.RecipientCode != ""
}

// Repository 用户仓储接口
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
	ListAll(ctx context.Context) ([]*User, error)
}
