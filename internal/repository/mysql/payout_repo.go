package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/TORY-SKY/swappNaija/internal/datamodels/payout"
)

type payoutRepo struct {
	db *gorm.DB
}

// NewPayoutRepository 创建提现仓储
func NewPayoutRepository(db *gorm.DB) payout.Repository {
	return &payoutRepo{db: db}
}

func (r *payoutRepo) Create(ctx context.Context, p *payout.Payout) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *payoutRepo) GetByID(ctx context.Context, id int64) (*payout.Payout, error) {
	var p payout.Payout
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *payoutRepo) List(ctx context.Context, opts payout.ListOptions) ([]*payout.Payout, error) {
	q := r.db.WithContext(ctx).Model(&payout.Payout{})
	if opts.SellerID != 0 {
		q = q.Where("seller_id = ?", opts.SellerID)
	}
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	var list []*payout.Payout
	if err := q.Order("request_date DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *payoutRepo) ListRecent(ctx context.Context, limit int) ([]*payout.Payout, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*payout.Payout
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
