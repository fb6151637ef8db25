package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/TORY-SKY/swappNaija/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, opts product.ListOptions) ([]*product.Product, error) {
	q := r.db.WithContext(ctx).Model(&product.Product{})
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.Category != "" {
		q = q.Where("category = ?", opts.Category)
	}
	if opts.OwnerID != 0 {
		q = q.Where("owner_id = ?", opts.OwnerID)
	}
	if opts.Keyword != "" {
		q = q.Where("title LIKE ?", "%"+opts.Keyword+"%")
	}
	if opts.FreeOnly {
		q = q.Where("is_free = ?", true)
	}
	if opts.Featured {
		q = q.Where("featured = ?", true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	var list []*product.Product
	if err := q.Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&product.Product{}, id).Error
}
