package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/TORY-SKY/swappNaija/internal/datamodels/product"
	"github.com/TORY-SKY/swappNaija/internal/storage"
)

const redisProductViewsKey = "swapp:product:views:%d" // productID

// ProductService 商品发布与浏览
// 商品的 sold / active 回退两条边只归账本管，这里只处理卖家自己的上下架。
type ProductService struct {
	repo  product.Repository
	blobs storage.BlobStore
	redis radix.Client
}

// NewProductService 创建商品服务，blobs / redis 在测试里可为 nil
func NewProductService(repo product.Repository, blobs storage.BlobStore, redis radix.Client) *ProductService {
	return &ProductService{repo: repo, blobs: blobs, redis: redis}
}

// Create 发布商品，状态固定为在售
func (s *ProductService) Create(ctx context.Context, ownerID int64, p *product.Product) (*product.Product, error) {
	if p.Title == "" {
		return nil, errors.New("title is required")
	}
	if p.Price < 0 {
		return nil, errors.New("price cannot be negative")
	}
	if p.IsFree {
		p.Price = 0
	}
	p.ID = 0
	p.OwnerID = ownerID
	p.Status = product.StatusActive
	p.Views = 0
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID 查询商品详情并累加浏览数（Redis INCR，Redis 不可用时静默跳过）
func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.redis != nil {
		var views int64
		key := fmt.Sprintf(redisProductViewsKey, id)
		if err := s.redis.Do(radix.Cmd(&views, "INCR", key)); err == nil {
			p.Views = views
		}
	}
	return p, nil
}

// List 浏览/搜索商品，默认只看在售
func (s *ProductService) List(ctx context.Context, opts product.ListOptions) ([]*product.Product, error) {
	if opts.Status == "" && opts.OwnerID == 0 {
		opts.Status = product.StatusActive
	}
	return s.repo.List(ctx, opts)
}

// Update 卖家编辑自己的商品，不允许从这里改状态
func (s *ProductService) Update(ctx context.Context, ownerID int64, p *product.Product) error {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return ErrUnauthorized
	}
	p.OwnerID = existing.OwnerID
	p.Status = existing.Status
	p.Views = existing.Views
	p.CreatedAt = existing.CreatedAt
	return s.repo.Update(ctx, p)
}

// SetStatus 卖家上下架自己的商品
// 只开放 active ↔ inactive；涉及 sold 的边必须走账本。
func (s *ProductService) SetStatus(ctx context.Context, ownerID, productID int64, status string) error {
	if status != product.StatusActive && status != product.StatusInactive {
		return ErrInvalidTransition
	}
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p.OwnerID != ownerID {
		return ErrUnauthorized
	}
	if p.Status == status {
		return nil
	}
	if p.Status == product.StatusSold || !product.CanTransition(p.Status, status) {
		return ErrInvalidTransition
	}
	p.Status = status
	return s.repo.Update(ctx, p)
}

// UploadImage 上传一张商品图片，返回可访问的 URL
// 第一张图作为主图，其余追加到 ImageURLs。
func (s *ProductService) UploadImage(ctx context.Context, ownerID, productID int64, filename string, r io.Reader) (string, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return "", err
	}
	if p.OwnerID != ownerID {
		return "", ErrUnauthorized
	}

	path := fmt.Sprintf("products/%d/%d%s", productID, time.Now().UnixNano(), filepath.Ext(filename))
	url, err := s.blobs.Put(ctx, path, r)
	if err != nil {
		return "", err
	}

	if p.ImageURL == "" {
		p.ImageURL = url
	}
	if p.ImageURLs == "" {
		p.ImageURLs = url
	} else {
		p.ImageURLs += "," + url
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return "", err
	}
	return url, nil
}
