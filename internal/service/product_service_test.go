package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TORY-SKY/swappNaija/internal/config"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/product"
	"github.com/TORY-SKY/swappNaija/internal/repository/mysql"
	"github.com/TORY-SKY/swappNaija/internal/storage"
)

func TestProductCreateDefaults(t *testing.T) {
	db := newTestDB(t)
	s := NewProductService(mysql.NewProductRepository(db), nil, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, 7, &product.Product{
		Title:    "MacBook Air M1",
		Price:    450000,
		Category: "electronics",
		Status:   product.StatusSold, // 调用方传什么都强制在售
		Views:    99,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.OwnerID)
	assert.Equal(t, product.StatusActive, p.Status)
	assert.Equal(t, int64(0), p.Views)

	// 免费商品价格归零
	free, err := s.Create(ctx, 7, &product.Product{Title: "Old Books", Price: 5000, IsFree: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), free.Price)

	_, err = s.Create(ctx, 7, &product.Product{Price: 100})
	assert.Error(t, err)
	_, err = s.Create(ctx, 7, &product.Product{Title: "x", Price: -1})
	assert.Error(t, err)
}

func TestProductListDefaultsToActive(t *testing.T) {
	db := newTestDB(t)
	s := NewProductService(mysql.NewProductRepository(db), nil, nil)
	ctx := context.Background()

	active, err := s.Create(ctx, 1, &product.Product{Title: "active", Price: 100})
	require.NoError(t, err)
	sold, err := s.Create(ctx, 1, &product.Product{Title: "sold", Price: 100})
	require.NoError(t, err)
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", sold.ID).Update("status", product.StatusSold).Error)

	// 公开列表默认只看在售
	list, err := s.List(ctx, product.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	// 卖家看自己的全部商品
	mine, err := s.List(ctx, product.ListOptions{OwnerID: 1})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestProductSetStatus(t *testing.T) {
	db := newTestDB(t)
	s := NewProductService(mysql.NewProductRepository(db), nil, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, 1, &product.Product{Title: "x", Price: 100})
	require.NoError(t, err)

	// 非所有者
	err = s.SetStatus(ctx, 2, p.ID, product.StatusInactive)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// 上下架往返
	require.NoError(t, s.SetStatus(ctx, 1, p.ID, product.StatusInactive))
	require.NoError(t, s.SetStatus(ctx, 1, p.ID, product.StatusActive))

	// sold 边不开放给卖家
	err = s.SetStatus(ctx, 1, p.ID, product.StatusSold)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// 已售商品不能手动改状态
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", p.ID).Update("status", product.StatusSold).Error)
	err = s.SetStatus(ctx, 1, p.ID, product.StatusInactive)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestProductUpdatePreservesStatus(t *testing.T) {
	db := newTestDB(t)
	s := NewProductService(mysql.NewProductRepository(db), nil, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, 1, &product.Product{Title: "x", Price: 100})
	require.NoError(t, err)
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", p.ID).Update("status", product.StatusSold).Error)

	edit := *p
	edit.Title = "y"
	edit.Price = 200
	edit.Status = product.StatusActive // 恶意改状态会被覆盖
	require.NoError(t, s.Update(ctx, 1, &edit))

	got, err := s.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "y", got.Title)
	assert.Equal(t, int64(200), got.Price)
	assert.Equal(t, product.StatusSold, got.Status)

	err = s.Update(ctx, 2, &edit)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestProductUploadImage(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	blobs := storage.NewDiskStore(&config.StorageConfig{Dir: dir, PublicBase: "/uploads"})
	s := NewProductService(mysql.NewProductRepository(db), blobs, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, 1, &product.Product{Title: "x", Price: 100})
	require.NoError(t, err)

	_, err = s.UploadImage(ctx, 2, p.ID, "a.jpg", strings.NewReader("img"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	url1, err := s.UploadImage(ctx, 1, p.ID, "a.jpg", strings.NewReader("first"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url1, "/uploads/products/"))

	url2, err := s.UploadImage(ctx, 1, p.ID, "b.png", strings.NewReader("second"))
	require.NoError(t, err)

	got, err := s.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, url1, got.ImageURL)
	assert.Equal(t, url1+","+url2, got.ImageURLs)

	// 文件真实落盘
	rel := strings.TrimPrefix(url1, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}
