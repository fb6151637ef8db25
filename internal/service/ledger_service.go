package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TORY-SKY/swappNaija/internal/datamodels/order"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/payout"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/product"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/user"
	"github.com/TORY-SKY/swappNaija/internal/infra/mq"
	"github.com/TORY-SKY/swappNaija/internal/paystack"
)

// PaymentVerifier 支付网关中账本需要的最小能力
type PaymentVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionData, error)
}

// PayoutMessage 投递给 payout-worker 的任务
type PayoutMessage struct {
	PayoutID int64 `json:"payout_id"`
}

// LedgerService 订单/提现账本
// 订单履约、商品售出/回退、提现资格这三类状态的唯一修改入口。
// 每个操作在单个事务里完成读-校验-写，实体更新和联动更新要么同时生效要么都不生效；
// 并发冲突依赖 SELECT ... FOR UPDATE 串行化，后到者会在校验阶段失败。
type LedgerService struct {
	db       *gorm.DB
	verifier PaymentVerifier
	mqConn   *amqp.Connection
}

// NewLedgerService 创建账本服务，verifier / mqConn 在测试里可为 nil
func NewLedgerService(db *gorm.DB, verifier PaymentVerifier, mqConn *amqp.Connection) *LedgerService {
	return &LedgerService{
		db:       db,
		verifier: verifier,
		mqConn:   mqConn,
	}
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	// SQLite 不支持 FOR UPDATE，写事务本身就是串行的
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func translateNotFound(err error, what string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}

// ---------------- 订单 ----------------

// CreateOrder 买家购买一件在售商品
// amount 取下单时的价格快照：price × quantity（免费商品为 0）。
// 带 paymentReference 视为下单即支付，同一事务内将商品置为已售；
// 未支付的订单不占用商品，支付确认时再锁定。
func (s *LedgerService) CreateOrder(ctx context.Context, buyerID, productID, quantity int64, addr order.ShippingAddress, paymentReference string) (*order.Order, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	var created *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p product.Product
		if err := lockForUpdate(tx).First(&p, productID).Error; err != nil {
			return translateNotFound(err, "product", productID)
		}
		if p.Status != product.StatusActive {
			return ErrProductUnavailable
		}
		if p.OwnerID == buyerID {
			return ErrInvalidActor
		}

		amount := p.Price * quantity
		if p.IsFree {
			amount = 0
		}

		o := &order.Order{
			BuyerID:          buyerID,
			SellerID:         p.OwnerID,
			ProductID:        p.ID,
			ProductTitle:     p.Title,
			ProductImage:     p.ImageURL,
			Quantity:         quantity,
			Amount:           amount,
			PaymentStatus:    order.PaymentPending,
			DeliveryStatus:   order.DeliveryPending,
			PaymentReference: paymentReference,
			ShippingAddress:  addr,
		}
		if paymentReference != "" {
			o.PaymentStatus = order.PaymentPaid
			p.Status = product.StatusSold
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	GetMonitor().RecordOrderCreated()
	return created, nil
}

// ConfirmPayment 校验支付引用并把未支付订单标记为已支付
// 网关确认成功后，订单置 paid、商品置 sold，两者同一事务。
// 网关报告未成功时订单支付状态置 failed，商品保持在售。
func (s *LedgerService) ConfirmPayment(ctx context.Context, buyerID, orderID int64, reference string) (*order.Order, error) {
	data, err := s.verifier.VerifyTransaction(ctx, reference)
	if err != nil {
		GetMonitor().RecordGatewayError()
		return nil, err
	}

	var updated *order.Order
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o order.Order
		if err := lockForUpdate(tx).First(&o, orderID).Error; err != nil {
			return translateNotFound(err, "order", orderID)
		}
		if o.BuyerID != buyerID {
			return ErrUnauthorized
		}
		if o.PaymentStatus != order.PaymentPending {
			return fmt.Errorf("payment already %s: %w", o.PaymentStatus, ErrInvalidTransition)
		}

		if data.Status != "success" {
			o.PaymentStatus = order.PaymentFailed
			o.PaymentReference = reference
			if err := tx.Save(&o).Error; err != nil {
				return err
			}
			updated = &o
			return nil
		}
		if data.Amount != o.Amount {
			return fmt.Errorf("paid amount %d does not match order amount %d", data.Amount, o.Amount)
		}

		var p product.Product
		if err := lockForUpdate(tx).First(&p, o.ProductID).Error; err != nil {
			return translateNotFound(err, "product", o.ProductID)
		}
		if p.Status != product.StatusActive {
			// 商品已被其它已支付订单占用，不把本单标成已支付
			return ErrProductUnavailable
		}

		o.PaymentStatus = order.PaymentPaid
		o.PaymentReference = reference
		p.Status = product.StatusSold
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		if err := tx.Save(&o).Error; err != nil {
			return err
		}
		updated = &o
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// UpdateOrderStatus 按状态机推进订单履约状态
// 边不存在返回 ErrInvalidTransition；边存在但操作者角色不符返回 ErrUnauthorized。
// 终态上的重复操作同样以 ErrInvalidTransition 拒绝，保证可审计。
func (s *LedgerService) UpdateOrderStatus(ctx context.Context, actorID, orderID int64, target order.DeliveryStatus, tracking *order.TrackingInfo) (*order.Order, error) {
	var updated *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o order.Order
		if err := lockForUpdate(tx).First(&o, orderID).Error; err != nil {
			return translateNotFound(err, "order", orderID)
		}

		role, ok := order.RoleFor(o.DeliveryStatus, target)
		if !ok {
			return fmt.Errorf("%s -> %s: %w", o.DeliveryStatus, target, ErrInvalidTransition)
		}
		switch role {
		case order.RoleBuyer:
			if o.BuyerID != actorID {
				return ErrUnauthorized
			}
		case order.RoleSeller:
			if o.SellerID != actorID {
				return ErrUnauthorized
			}
		}

		o.DeliveryStatus = target
		if tracking != nil {
			o.TrackingInfo = *tracking
		}
		if err := tx.Save(&o).Error; err != nil {
			return err
		}

		// 取消时若商品是被本订单售出的，回退为在售
		if target == order.DeliveryCancelled && o.PaymentStatus == order.PaymentPaid {
			var p product.Product
			if err := lockForUpdate(tx).First(&p, o.ProductID).Error; err != nil {
				return translateNotFound(err, "product", o.ProductID)
			}
			if p.Status == product.StatusSold {
				p.Status = product.StatusActive
				if err := tx.Save(&p).Error; err != nil {
					return err
				}
			}
		}

		updated = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	switch target {
	case order.DeliveryCancelled:
		GetMonitor().RecordOrderCancelled()
	case order.DeliveryCompleted:
		GetMonitor().RecordOrderCompleted()
	}
	return updated, nil
}

// CancelOrder 买家取消未发货订单（pending → cancelled 的便捷入口）
func (s *LedgerService) CancelOrder(ctx context.Context, buyerID, orderID int64) error {
	_, err := s.UpdateOrderStatus(ctx, buyerID, orderID, order.DeliveryCancelled, nil)
	return err
}

// ConfirmDelivery 买家确认收货（→ completed 的便捷入口），完成后该单计入提现资格
func (s *LedgerService) ConfirmDelivery(ctx context.Context, buyerID, orderID int64) error {
	_, err := s.UpdateOrderStatus(ctx, buyerID, orderID, order.DeliveryCompleted, nil)
	return err
}

// GetOrder 查询单个订单，只有买卖双方可见
func (s *LedgerService) GetOrder(ctx context.Context, actorID, orderID int64) (*order.Order, error) {
	var o order.Order
	if err := s.db.WithContext(ctx).First(&o, orderID).Error; err != nil {
		return nil, translateNotFound(err, "order", orderID)
	}
	if o.BuyerID != actorID && o.SellerID != actorID {
		return nil, ErrUnauthorized
	}
	return &o, nil
}

// ---------------- 提现 ----------------

// EligibleProceeds 卖家当前可提现金额与对应订单数
// 口径：deliveryStatus=completed 且 paymentStatus=paid 且未被任何提现消耗。
func (s *LedgerService) EligibleProceeds(ctx context.Context, sellerID int64) (int64, int, error) {
	var orders []*order.Order
	if err := s.db.WithContext(ctx).
		Where("seller_id = ? AND delivery_status = ? AND payment_status = ? AND payout_id = 0",
			sellerID, order.DeliveryCompleted, order.PaymentPaid).
		Find(&orders).Error; err != nil {
		return 0, 0, err
	}
	var total int64
	for _, o := range orders {
		total += o.Amount
	}
	return total, len(orders), nil
}

// RequestPayout 卖家申请提现
// 前置条件：已注册收款人，且存在已完成+已支付且未提现的订单。
// 创建提现单的同一事务内给被消耗的订单打上 payout_id，杜绝同一订单重复提现；
// 随后把提现单投递到 MQ，由 payout-worker 发起网关转账。
func (s *LedgerService) RequestPayout(ctx context.Context, sellerID, amount int64, bank payout.BankDetails) (*payout.Payout, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("payout amount must be positive")
	}

	var seller user.User
	if err := s.db.WithContext(ctx).First(&seller, sellerID).Error; err != nil {
		return nil, translateNotFound(err, "user", sellerID)
	}
	if !seller.HasRecipientCode() {
		return nil, ErrMissingRecipientCode
	}

	var created *payout.Payout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eligible []*order.Order
		if err := lockForUpdate(tx).
			Where("seller_id = ? AND delivery_status = ? AND payment_status = ? AND payout_id = 0",
				sellerID, order.DeliveryCompleted, order.PaymentPaid).
			Find(&eligible).Error; err != nil {
			return err
		}
		if len(eligible) == 0 {
			return ErrNoEligibleOrders
		}

		var total int64
		ids := make([]int64, 0, len(eligible))
		for _, o := range eligible {
			total += o.Amount
			ids = append(ids, o.ID)
		}
		if amount > total {
			return ErrAmountExceedsProceeds
		}

		p := &payout.Payout{
			SellerID:      sellerID,
			Amount:        amount,
			Status:        payout.StatusPending,
			BankDetails:   bank,
			RecipientCode: seller.RecipientCode,
			RequestDate:   time.Now(),
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if err := tx.Model(&order.Order{}).
			Where("id IN ?", ids).
			Update("payout_id", p.ID).Error; err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	GetMonitor().RecordPayoutRequested()

	if s.mqConn != nil {
		body, _ := json.Marshal(PayoutMessage{PayoutID: created.ID})
		if err := mq.Publish(ctx, s.mqConn, mq.PayoutQueue, body); err != nil {
			// 投递失败不回滚提现单，worker 之外还有后台补偿入口
			GetMonitor().RecordMQError()
			zap.L().Warn("failed to enqueue payout", zap.Int64("payout_id", created.ID), zap.Error(err))
		}
	}
	return created, nil
}

// CancelPayout 卖家取消 pending 状态的提现，被消耗的订单恢复可提现
func (s *LedgerService) CancelPayout(ctx context.Context, sellerID, payoutID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p payout.Payout
		if err := lockForUpdate(tx).First(&p, payoutID).Error; err != nil {
			return translateNotFound(err, "payout", payoutID)
		}
		if p.SellerID != sellerID {
			return ErrUnauthorized
		}
		if !payout.Allowed(p.Status, payout.StatusFailed, order.RoleSeller) {
			return fmt.Errorf("payout is %s: %w", p.Status, ErrInvalidTransition)
		}
		return s.failPayoutLocked(tx, &p, "cancelled by seller")
	})
}

// MarkPayoutProcessing 网关受理转账后由系统推进 pending → processing
func (s *LedgerService) MarkPayoutProcessing(ctx context.Context, payoutID int64, transferReference string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p payout.Payout
		if err := lockForUpdate(tx).First(&p, payoutID).Error; err != nil {
			return translateNotFound(err, "payout", payoutID)
		}
		if !payout.Allowed(p.Status, payout.StatusProcessing, order.RoleSystem) {
			return fmt.Errorf("payout is %s: %w", p.Status, ErrInvalidTransition)
		}
		p.Status = payout.StatusProcessing
		p.TransferReference = transferReference
		return tx.Save(&p).Error
	})
}

// CompletePayout 网关确认到账，processing → completed
func (s *LedgerService) CompletePayout(ctx context.Context, payoutID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p payout.Payout
		if err := lockForUpdate(tx).First(&p, payoutID).Error; err != nil {
			return translateNotFound(err, "payout", payoutID)
		}
		if !payout.Allowed(p.Status, payout.StatusCompleted, order.RoleSystem) {
			return fmt.Errorf("payout is %s: %w", p.Status, ErrInvalidTransition)
		}
		now := time.Now()
		p.Status = payout.StatusCompleted
		p.ProcessedDate = &now
		return tx.Save(&p).Error
	})
	if err == nil {
		GetMonitor().RecordPayoutProcessed()
	}
	return err
}

// FailPayout 网关转账失败（pending 或 processing），被消耗的订单恢复可提现
func (s *LedgerService) FailPayout(ctx context.Context, payoutID int64, note string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p payout.Payout
		if err := lockForUpdate(tx).First(&p, payoutID).Error; err != nil {
			return translateNotFound(err, "payout", payoutID)
		}
		if !payout.Allowed(p.Status, payout.StatusFailed, order.RoleSystem) {
			return fmt.Errorf("payout is %s: %w", p.Status, ErrInvalidTransition)
		}
		return s.failPayoutLocked(tx, &p, note)
	})
	if err == nil {
		GetMonitor().RecordPayoutFailed()
	}
	return err
}

// failPayoutLocked 把已锁定的提现单置为 failed 并释放其消耗的订单
func (s *LedgerService) failPayoutLocked(tx *gorm.DB, p *payout.Payout, note string) error {
	now := time.Now()
	p.Status = payout.StatusFailed
	p.Notes = note
	p.ProcessedDate = &now
	if err := tx.Save(p).Error; err != nil {
		return err
	}
	return tx.Model(&order.Order{}).
		Where("payout_id = ?", p.ID).
		Update("payout_id", 0).Error
}

// GetPayout 查询单个提现，只有发起它的卖家可见
func (s *LedgerService) GetPayout(ctx context.Context, sellerID, payoutID int64) (*payout.Payout, error) {
	var p payout.Payout
	if err := s.db.WithContext(ctx).First(&p, payoutID).Error; err != nil {
		return nil, translateNotFound(err, "payout", payoutID)
	}
	if p.SellerID != sellerID {
		return nil, ErrUnauthorized
	}
	return &p, nil
}
