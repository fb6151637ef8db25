package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/TORY-SKY/swappNaija/internal/datamodels/order"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/payout"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/product"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/user"
	"github.com/TORY-SKY/swappNaija/internal/paystack"
	"github.com/TORY-SKY/swappNaija/internal/repository/mysql"
)

type fakeVerifier struct {
	data *paystack.TransactionData
	err  error
}

func (f *fakeVerifier) VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionData, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := *f.data
	d.Reference = reference
	return &d, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接，避免每个连接各自一个 :memory: 库
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, mysql.AutoMigrate(db))
	return db
}

func mkUser(t *testing.T, db *gorm.DB, username, recipientCode string) *user.User {
	t.Helper()
	u := &user.User{
		Username:      username,
		Password:      "x",
		Salt:          "x",
		UserType:      user.TypeBoth,
		RecipientCode: recipientCode,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func mkProduct(t *testing.T, db *gorm.DB, ownerID, price int64) *product.Product {
	t.Helper()
	p := &product.Product{
		OwnerID: ownerID,
		Title:   "iPhone 11 Pro",
		Price:   price,
		Status:  product.StatusActive,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func getProduct(t *testing.T, db *gorm.DB, id int64) *product.Product {
	t.Helper()
	var p product.Product
	require.NoError(t, db.First(&p, id).Error)
	return &p
}

func getOrder(t *testing.T, db *gorm.DB, id int64) *order.Order {
	t.Helper()
	var o order.Order
	require.NoError(t, db.First(&o, id).Error)
	return &o
}

var testAddr = order.ShippingAddress{
	FullName:    "John Doe",
	PhoneNumber: "+2348012345678",
	Street:      "123 Main Street",
	City:        "Lagos",
	State:       "Lagos",
	Country:     "Nigeria",
}

// completedPaidOrder 把一笔已支付订单一路推进到 completed
func completedPaidOrder(t *testing.T, db *gorm.DB, s *LedgerService, buyerID, productID int64) *order.Order {
	t.Helper()
	ctx := context.Background()
	o, err := s.CreateOrder(ctx, buyerID, productID, 1, testAddr, "pay_ref")
	require.NoError(t, err)
	_, err = s.UpdateOrderStatus(ctx, o.SellerID, o.ID, order.DeliveryShipped, nil)
	require.NoError(t, err)
	require.NoError(t, s.ConfirmDelivery(ctx, buyerID, o.ID))
	return getOrder(t, db, o.ID)
}

func TestCreateOrderPaidAtCreation(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "pay_123")
	require.NoError(t, err)

	assert.Equal(t, int64(85000), o.Amount)
	assert.Equal(t, seller.ID, o.SellerID)
	assert.Equal(t, order.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, order.DeliveryPending, o.DeliveryStatus)
	assert.Equal(t, "pay_123", o.PaymentReference)

	// 已支付下单立即占用商品
	assert.Equal(t, product.StatusSold, getProduct(t, db, p.ID).Status)
}

func TestCreateOrderUnpaidDoesNotReserve(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 50000)

	o, err := s.CreateOrder(context.Background(), buyer.ID, p.ID, 2, testAddr, "")
	require.NoError(t, err)

	assert.Equal(t, int64(100000), o.Amount)
	assert.Equal(t, order.PaymentPending, o.PaymentStatus)
	// 未支付的订单不占用商品
	assert.Equal(t, product.StatusActive, getProduct(t, db, p.ID).Status)
}

func TestCreateOrderFailures(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 85000)

	// 自己不能买自己的商品
	_, err := s.CreateOrder(ctx, seller.ID, p.ID, 1, testAddr, "")
	assert.ErrorIs(t, err, ErrInvalidActor)

	// 不存在的商品
	_, err = s.CreateOrder(ctx, buyer.ID, 9999, 1, testAddr, "")
	assert.ErrorIs(t, err, ErrNotFound)

	// 数量非法
	_, err = s.CreateOrder(ctx, buyer.ID, p.ID, 0, testAddr, "")
	assert.Error(t, err)

	// 已售出的商品不能再购买
	require.NoError(t, db.Model(p).Update("status", product.StatusSold).Error)
	_, err = s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "")
	assert.ErrorIs(t, err, ErrProductUnavailable)

	// 下架的商品同样不可购买
	require.NoError(t, db.Model(p).Update("status", product.StatusInactive).Error)
	_, err = s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "")
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestUpdateOrderStatusAuthorization(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	stranger := mkUser(t, db, "stranger", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "pay_ref")
	require.NoError(t, err)

	// 发货是卖家的边
	_, err = s.UpdateOrderStatus(ctx, buyer.ID, o.ID, order.DeliveryShipped, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.UpdateOrderStatus(ctx, stranger.ID, o.ID, order.DeliveryShipped, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, order.DeliveryPending, getOrder(t, db, o.ID).DeliveryStatus)

	tracking := &order.TrackingInfo{Carrier: "GIG", TrackingNumber: "GIG-42"}
	updated, err := s.UpdateOrderStatus(ctx, seller.ID, o.ID, order.DeliveryShipped, tracking)
	require.NoError(t, err)
	assert.Equal(t, order.DeliveryShipped, updated.DeliveryStatus)
	assert.Equal(t, "GIG-42", updated.TrackingInfo.TrackingNumber)

	// 确认收货是买家的边
	_, err = s.UpdateOrderStatus(ctx, seller.ID, o.ID, order.DeliveryCompleted, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// 不存在的边
	_, err = s.UpdateOrderStatus(ctx, seller.ID, o.ID, order.DeliveryPending, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// 不存在的订单
	_, err = s.UpdateOrderStatus(ctx, seller.ID, 9999, order.DeliveryShipped, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderLifecycleHappyPath(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "RCP_abc")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "pay_ref")
	require.NoError(t, err)
	assert.Equal(t, int64(85000), o.Amount)
	assert.Equal(t, product.StatusSold, getProduct(t, db, p.ID).Status)

	_, err = s.UpdateOrderStatus(ctx, seller.ID, o.ID, order.DeliveryShipped, nil)
	require.NoError(t, err)
	require.NoError(t, s.ConfirmDelivery(ctx, buyer.ID, o.ID))
	assert.Equal(t, order.DeliveryCompleted, getOrder(t, db, o.ID).DeliveryStatus)

	// 完成解锁提现资格
	po, err := s.RequestPayout(ctx, seller.ID, 85000, payout.BankDetails{AccountNumber: "0123456789", BankCode: "058"})
	require.NoError(t, err)
	assert.Equal(t, payout.StatusPending, po.Status)
	assert.Equal(t, "RCP_abc", po.RecipientCode)

	// 完成后的订单不能取消，商品保持已售
	err = s.CancelOrder(ctx, buyer.ID, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, order.DeliveryCompleted, getOrder(t, db, o.ID).DeliveryStatus)
	assert.Equal(t, product.StatusSold, getProduct(t, db, p.ID).Status)
}

func TestConfirmDeliveryFromDelivered(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "pay_ref")
	require.NoError(t, err)
	_, err = s.UpdateOrderStatus(ctx, seller.ID, o.ID, order.DeliveryShipped, nil)
	require.NoError(t, err)
	_, err = s.UpdateOrderStatus(ctx, seller.ID, o.ID, order.DeliveryDelivered, nil)
	require.NoError(t, err)

	require.NoError(t, s.ConfirmDelivery(ctx, buyer.ID, o.ID))
	assert.Equal(t, order.DeliveryCompleted, getOrder(t, db, o.ID).DeliveryStatus)
}

func TestCancelPendingRevertsProduct(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "pay_ref")
	require.NoError(t, err)
	assert.Equal(t, product.StatusSold, getProduct(t, db, p.ID).Status)

	require.NoError(t, s.CancelOrder(ctx, buyer.ID, o.ID))
	assert.Equal(t, order.DeliveryCancelled, getOrder(t, db, o.ID).DeliveryStatus)
	// 是本订单售出的商品，取消后回到在售
	assert.Equal(t, product.StatusActive, getProduct(t, db, p.ID).Status)
}

func TestCancelUnpaidOrderLeavesProduct(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "")
	require.NoError(t, err)

	require.NoError(t, s.CancelOrder(ctx, buyer.ID, o.ID))
	assert.Equal(t, product.StatusActive, getProduct(t, db, p.ID).Status)
}

func TestCancelAfterShipmentFails(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "pay_ref")
	require.NoError(t, err)
	_, err = s.UpdateOrderStatus(ctx, seller.ID, o.ID, order.DeliveryShipped, nil)
	require.NoError(t, err)

	err = s.CancelOrder(ctx, buyer.ID, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	// 订单和商品都保持不变
	assert.Equal(t, order.DeliveryShipped, getOrder(t, db, o.ID).DeliveryStatus)
	assert.Equal(t, product.StatusSold, getProduct(t, db, p.ID).Status)
}

func TestTerminalTransitionsAreRejectedTwice(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 85000)
	o := completedPaidOrder(t, db, s, buyer.ID, p.ID)

	// 重复确认收货：两次都报 InvalidTransition，数据不变
	err := s.ConfirmDelivery(ctx, buyer.ID, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	err = s.ConfirmDelivery(ctx, buyer.ID, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, order.DeliveryCompleted, getOrder(t, db, o.ID).DeliveryStatus)

	// 已取消订单再取消同样拒绝
	p2 := mkProduct(t, db, seller.ID, 1000)
	o2, err := s.CreateOrder(ctx, buyer.ID, p2.ID, 1, testAddr, "")
	require.NoError(t, err)
	require.NoError(t, s.CancelOrder(ctx, buyer.ID, o2.ID))
	err = s.CancelOrder(ctx, buyer.ID, o2.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetOrderVisibility(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	stranger := mkUser(t, db, "stranger", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "")
	require.NoError(t, err)

	_, err = s.GetOrder(ctx, buyer.ID, o.ID)
	assert.NoError(t, err)
	_, err = s.GetOrder(ctx, seller.ID, o.ID)
	assert.NoError(t, err)
	_, err = s.GetOrder(ctx, stranger.ID, o.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.GetOrder(ctx, buyer.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

// ---------------- 支付确认 ----------------

func TestConfirmPaymentSuccess(t *testing.T) {
	db := newTestDB(t)
	v := &fakeVerifier{data: &paystack.TransactionData{Amount: 85000, Status: "success"}}
	s := NewLedgerService(db, v, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "")
	require.NoError(t, err)
	assert.Equal(t, product.StatusActive, getProduct(t, db, p.ID).Status)

	updated, err := s.ConfirmPayment(ctx, buyer.ID, o.ID, "pay_999")
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, "pay_999", updated.PaymentReference)
	// 支付确认后商品才被占用
	assert.Equal(t, product.StatusSold, getProduct(t, db, p.ID).Status)

	// 重复确认
	_, err = s.ConfirmPayment(ctx, buyer.ID, o.ID, "pay_999")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmPaymentDeclined(t *testing.T) {
	db := newTestDB(t)
	v := &fakeVerifier{data: &paystack.TransactionData{Amount: 85000, Status: "failed"}}
	s := NewLedgerService(db, v, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "")
	require.NoError(t, err)

	updated, err := s.ConfirmPayment(ctx, buyer.ID, o.ID, "pay_bad")
	require.NoError(t, err)
	assert.Equal(t, order.PaymentFailed, updated.PaymentStatus)
	// 商品保持在售
	assert.Equal(t, product.StatusActive, getProduct(t, db, p.ID).Status)
}

func TestConfirmPaymentChecks(t *testing.T) {
	db := newTestDB(t)
	v := &fakeVerifier{data: &paystack.TransactionData{Amount: 1, Status: "success"}}
	s := NewLedgerService(db, v, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "")
	buyer := mkUser(t, db, "buyer", "")
	stranger := mkUser(t, db, "stranger", "")
	p := mkProduct(t, db, seller.ID, 85000)

	o, err := s.CreateOrder(ctx, buyer.ID, p.ID, 1, testAddr, "")
	require.NoError(t, err)

	// 只有买家能确认
	_, err = s.ConfirmPayment(ctx, stranger.ID, o.ID, "pay_x")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// 金额不符
	_, err = s.ConfirmPayment(ctx, buyer.ID, o.ID, "pay_x")
	assert.Error(t, err)
	assert.Equal(t, order.PaymentPending, getOrder(t, db, o.ID).PaymentStatus)
}

// ---------------- 提现 ----------------

func TestRequestPayoutPreconditions(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	noCode := mkUser(t, db, "nocode", "")
	withCode := mkUser(t, db, "withcode", "RCP_1")
	bank := payout.BankDetails{AccountNumber: "0123456789", BankCode: "058"}

	// 未注册收款人
	_, err := s.RequestPayout(ctx, noCode.ID, 1000, bank)
	assert.ErrorIs(t, err, ErrMissingRecipientCode)

	// 没有符合条件的订单
	_, err = s.RequestPayout(ctx, withCode.ID, 1000, bank)
	assert.ErrorIs(t, err, ErrNoEligibleOrders)

	// 金额非法
	_, err = s.RequestPayout(ctx, withCode.ID, 0, bank)
	assert.Error(t, err)

	// 不存在的卖家
	_, err = s.RequestPayout(ctx, 9999, 1000, bank)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestPayoutConsumesOrders(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "RCP_1")
	buyer := mkUser(t, db, "buyer", "")
	bank := payout.BankDetails{AccountNumber: "0123456789", BankCode: "058"}

	p1 := mkProduct(t, db, seller.ID, 85000)
	p2 := mkProduct(t, db, seller.ID, 15000)
	o1 := completedPaidOrder(t, db, s, buyer.ID, p1.ID)
	o2 := completedPaidOrder(t, db, s, buyer.ID, p2.ID)

	total, count, err := s.EligibleProceeds(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), total)
	assert.Equal(t, 2, count)

	// 超额申请被拒
	_, err = s.RequestPayout(ctx, seller.ID, 100001, bank)
	assert.ErrorIs(t, err, ErrAmountExceedsProceeds)

	po, err := s.RequestPayout(ctx, seller.ID, 100000, bank)
	require.NoError(t, err)

	// 被消耗的订单打上 payout_id
	assert.Equal(t, po.ID, getOrder(t, db, o1.ID).PayoutID)
	assert.Equal(t, po.ID, getOrder(t, db, o2.ID).PayoutID)

	// 同一批订单不能再次提现
	_, err = s.RequestPayout(ctx, seller.ID, 1000, bank)
	assert.ErrorIs(t, err, ErrNoEligibleOrders)
}

func TestCancelPayoutReleasesOrders(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "RCP_1")
	other := mkUser(t, db, "other", "RCP_2")
	buyer := mkUser(t, db, "buyer", "")
	bank := payout.BankDetails{AccountNumber: "0123456789", BankCode: "058"}

	p := mkProduct(t, db, seller.ID, 85000)
	o := completedPaidOrder(t, db, s, buyer.ID, p.ID)

	po, err := s.RequestPayout(ctx, seller.ID, 85000, bank)
	require.NoError(t, err)

	// 只有发起的卖家能取消
	err = s.CancelPayout(ctx, other.ID, po.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, s.CancelPayout(ctx, seller.ID, po.ID))

	got, err := s.GetPayout(ctx, seller.ID, po.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.StatusFailed, got.Status)
	assert.Equal(t, "cancelled by seller", got.Notes)
	assert.NotNil(t, got.ProcessedDate)

	// 订单释放后可再次提现
	assert.Equal(t, int64(0), getOrder(t, db, o.ID).PayoutID)
	_, err = s.RequestPayout(ctx, seller.ID, 85000, bank)
	assert.NoError(t, err)

	// 终态上的重复取消被拒
	err = s.CancelPayout(ctx, seller.ID, po.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPayoutSystemTransitions(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "RCP_1")
	buyer := mkUser(t, db, "buyer", "")
	bank := payout.BankDetails{AccountNumber: "0123456789", BankCode: "058"}

	p := mkProduct(t, db, seller.ID, 85000)
	completedPaidOrder(t, db, s, buyer.ID, p.ID)

	po, err := s.RequestPayout(ctx, seller.ID, 85000, bank)
	require.NoError(t, err)

	// pending 不能直接 completed
	err = s.CompletePayout(ctx, po.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.MarkPayoutProcessing(ctx, po.ID, "TRF_123"))
	got, err := s.GetPayout(ctx, seller.ID, po.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.StatusProcessing, got.Status)
	assert.Equal(t, "TRF_123", got.TransferReference)

	// processing 之后卖家不能再取消
	err = s.CancelPayout(ctx, seller.ID, po.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.CompletePayout(ctx, po.ID))
	got, err = s.GetPayout(ctx, seller.ID, po.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.StatusCompleted, got.Status)
	assert.NotNil(t, got.ProcessedDate)

	// 终态重复推进
	err = s.CompletePayout(ctx, po.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	err = s.MarkPayoutProcessing(ctx, po.ID, "TRF_456")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFailPayoutReleasesOrders(t *testing.T) {
	db := newTestDB(t)
	s := NewLedgerService(db, nil, nil)
	ctx := context.Background()

	seller := mkUser(t, db, "seller", "RCP_1")
	buyer := mkUser(t, db, "buyer", "")
	bank := payout.BankDetails{AccountNumber: "0123456789", BankCode: "058"}

	p := mkProduct(t, db, seller.ID, 85000)
	o := completedPaidOrder(t, db, s, buyer.ID, p.ID)

	po, err := s.RequestPayout(ctx, seller.ID, 85000, bank)
	require.NoError(t, err)

	// 网关在 pending 阶段直接拒绝
	require.NoError(t, s.FailPayout(ctx, po.ID, "insufficient balance"))
	got, err := s.GetPayout(ctx, seller.ID, po.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.StatusFailed, got.Status)
	assert.Equal(t, "insufficient balance", got.Notes)
	assert.Equal(t, int64(0), getOrder(t, db, o.ID).PayoutID)

	// processing 阶段失败同样释放订单
	po2, err := s.RequestPayout(ctx, seller.ID, 85000, bank)
	require.NoError(t, err)
	require.NoError(t, s.MarkPayoutProcessing(ctx, po2.ID, "TRF_9"))
	require.NoError(t, s.FailPayout(ctx, po2.ID, "transfer failed"))
	assert.Equal(t, int64(0), getOrder(t, db, o.ID).PayoutID)
}
