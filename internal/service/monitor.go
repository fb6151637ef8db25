package service

import (
	"sync"
	"time"
)

// Monitor 运行指标统计，后台 /api/stats 暴露
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	DBErrors      int64
	MQErrors      int64
	GatewayErrors int64

	// 业务统计
	OrdersCreated    int64
	OrdersCompleted  int64
	OrdersCancelled  int64
	PayoutsRequested int64
	PayoutsProcessed int64
	PayoutsFailed    int64

	// 时间统计
	LastDBError      time.Time
	LastMQError      time.Time
	LastGatewayError time.Time
	LastOrderTime    time.Time
	LastPayoutTime   time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordMQError 记录MQ错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// RecordGatewayError 记录支付网关错误
func (m *Monitor) RecordGatewayError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GatewayErrors++
	m.LastGatewayError = time.Now()
}

// RecordOrderCreated 记录订单创建
func (m *Monitor) RecordOrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCreated++
	m.LastOrderTime = time.Now()
}

// RecordOrderCompleted 记录订单完成
func (m *Monitor) RecordOrderCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCompleted++
	m.LastOrderTime = time.Now()
}

// RecordOrderCancelled 记录订单取消
func (m *Monitor) RecordOrderCancelled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCancelled++
	m.LastOrderTime = time.Now()
}

// RecordPayoutRequested 记录提现申请
func (m *Monitor) RecordPayoutRequested() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PayoutsRequested++
	m.LastPayoutTime = time.Now()
}

// RecordPayoutProcessed 记录提现完成
func (m *Monitor) RecordPayoutProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PayoutsProcessed++
	m.LastPayoutTime = time.Now()
}

// RecordPayoutFailed 记录提现失败
func (m *Monitor) RecordPayoutFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PayoutsFailed++
	m.LastPayoutTime = time.Now()
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	completionRate := float64(0)
	if m.OrdersCreated > 0 {
		completionRate = float64(m.OrdersCompleted) / float64(m.OrdersCreated) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"db":      m.DBErrors,
			"mq":      m.MQErrors,
			"gateway": m.GatewayErrors,
		},
		"orders": map[string]interface{}{
			"created":         m.OrdersCreated,
			"completed":       m.OrdersCompleted,
			"cancelled":       m.OrdersCancelled,
			"completion_rate": completionRate,
		},
		"payouts": map[string]interface{}{
			"requested": m.PayoutsRequested,
			"processed": m.PayoutsProcessed,
			"failed":    m.PayoutsFailed,
		},
		"last_events": map[string]interface{}{
			"db_error":      m.LastDBError,
			"mq_error":      m.LastMQError,
			"gateway_error": m.LastGatewayError,
			"last_order":    m.LastOrderTime,
			"last_payout":   m.LastPayoutTime,
		},
	}
}

// Reset 重置统计（用于测试）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors = 0
	m.MQErrors = 0
	m.GatewayErrors = 0
	m.OrdersCreated = 0
	m.OrdersCompleted = 0
	m.OrdersCancelled = 0
	m.PayoutsRequested = 0
	m.PayoutsProcessed = 0
	m.PayoutsFailed = 0
}
