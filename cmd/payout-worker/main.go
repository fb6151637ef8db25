package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/TORY-SKY/swappNaija/internal/config"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/payout"
	"github.com/TORY-SKY/swappNaija/internal/infra/log"
	"github.com/TORY-SKY/swappNaija/internal/infra/mq"
	"github.com/TORY-SKY/swappNaija/internal/paystack"
	"github.com/TORY-SKY/swappNaija/internal/repository/mysql"
	"github.com/TORY-SKY/swappNaija/internal/service"
)

// payout-worker 消费提现队列，对每个 pending 提现单向 Paystack 发起转账：
// 网关受理 → pending→processing；网关拒绝 → pending→failed 并释放订单；
// 网络类错误 → 消息重新入队。到账确认（processing→completed）走后台回执接口。
func main() {
	log.Init(false)

	cfg, err := config.Load("./config")
	if err != nil {
		zap.L().Fatal("load config failed", zap.Error(err))
	}

	db := mysql.Init(&cfg.MySQL)
	mqConn := mq.Init(&cfg.RabbitMQ)
	gateway := paystack.New(&cfg.Paystack)

	payoutRepo := mysql.NewPayoutRepository(db)
	ledger := service.NewLedgerService(db, gateway, mqConn)

	ch, err := mqConn.Channel()
	if err != nil {
		zap.L().Fatal("failed to open channel", zap.Error(err))
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(mq.PayoutQueue, true, false, false, false, nil); err != nil {
		zap.L().Fatal("failed to declare queue", zap.Error(err))
	}

	// 手动确认模式（auto-ack=false）
	msgs, err := ch.Consume(mq.PayoutQueue, "", false, false, false, false, nil)
	if err != nil {
		zap.L().Fatal("failed to consume", zap.Error(err))
	}

	zap.L().Info("payout worker started, waiting for messages...")

	for d := range msgs {
		var m service.PayoutMessage
		if err := json.Unmarshal(d.Body, &m); err != nil {
			zap.L().Warn("invalid message", zap.Error(err))
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			continue
		}
		handleMessage(context.Background(), payoutRepo, ledger, gateway, &m, d)
	}
}

func handleMessage(ctx context.Context, payoutRepo payout.Repository, ledger *service.LedgerService, gateway *paystack.Client, m *service.PayoutMessage, d amqp.Delivery) {
	p, err := payoutRepo.GetByID(ctx, m.PayoutID)
	if err != nil {
		zap.L().Error("get payout failed", zap.Int64("payout_id", m.PayoutID), zap.Error(err))
		service.GetMonitor().RecordDBError()
		_ = d.Nack(false, true)
		return
	}
	if p.Status != payout.StatusPending {
		// 已被处理过（重复投递/后台补偿），直接确认
		zap.L().Info("payout already handled", zap.Int64("payout_id", p.ID), zap.String("status", string(p.Status)))
		_ = d.Ack(false)
		return
	}

	reason := fmt.Sprintf("Payout #%d from SwappNaija", p.ID)
	transfer, err := gateway.InitiateTransfer(ctx, p.Amount, p.RecipientCode, reason)
	if err != nil {
		service.GetMonitor().RecordGatewayError()
		var ge *paystack.GatewayError
		if errors.As(err, &ge) {
			// 网关明确拒绝：置失败并释放订单，不再重试
			zap.L().Warn("transfer rejected", zap.Int64("payout_id", p.ID), zap.String("message", ge.Message))
			if err := ledger.FailPayout(ctx, p.ID, ge.Message); err != nil {
				zap.L().Error("fail payout failed", zap.Int64("payout_id", p.ID), zap.Error(err))
				_ = d.Nack(false, true)
				return
			}
			_ = d.Ack(false)
			return
		}
		// 网络类错误，重新入队
		zap.L().Warn("transfer request failed, requeue", zap.Int64("payout_id", p.ID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}

	if err := ledger.MarkPayoutProcessing(ctx, p.ID, transfer.Reference); err != nil {
		zap.L().Error("mark processing failed", zap.Int64("payout_id", p.ID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}

	zap.L().Info("transfer initiated",
		zap.Int64("payout_id", p.ID),
		zap.String("transfer_code", transfer.TransferCode),
		zap.String("reference", transfer.Reference))
	_ = d.Ack(false)
}
