package server

import (
	"encoding/json"

	"github.com/kataras/iris/v12"

	"github.com/TORY-SKY/swappNaija/internal/config"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/order"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/payout"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/product"
	"github.com/TORY-SKY/swappNaija/internal/infra/mq"
	"github.com/TORY-SKY/swappNaija/internal/repository/mysql"
	"github.com/TORY-SKY/swappNaija/internal/service"
)

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与前台服务分离。提现的系统侧状态推进
// （网关回执 settle / fail）也从这里进来。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	db := mysql.Init(&cfg.MySQL)
	mqConn := mq.Init(&cfg.RabbitMQ)

	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	payoutRepo := mysql.NewPayoutRepository(db)

	ledger := service.NewLedgerService(db, nil, mqConn)

	api := app.Party("/api")

	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// 运行指标
	api.Get("/stats", func(ctx iris.Context) {
		ok(ctx, service.GetMonitor().GetStats())
	})

	// ---------- 用户 ----------

	api.Get("/users", func(ctx iris.Context) {
		list, err := userRepo.ListAll(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// ---------- 商品 ----------

	api.Get("/products", func(ctx iris.Context) {
		list, err := productRepo.List(ctx.Request().Context(), product.ListOptions{
			Status:   ctx.URLParam("status"),
			Category: ctx.URLParam("category"),
			Limit:    ctx.URLParamIntDefault("limit", 0),
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// ---------- 订单 ----------

	api.Get("/orders", func(ctx iris.Context) {
		list, err := orderRepo.List(ctx.Request().Context(), order.ListOptions{
			DeliveryStatus: order.DeliveryStatus(ctx.URLParam("status")),
			PaymentStatus:  order.PaymentStatus(ctx.URLParam("payment_status")),
			Limit:          ctx.URLParamIntDefault("limit", 50),
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// ---------- 提现 ----------

	api.Get("/payouts", func(ctx iris.Context) {
		list, err := payoutRepo.List(ctx.Request().Context(), payout.ListOptions{
			Status: payout.Status(ctx.URLParam("status")),
			Limit:  ctx.URLParamIntDefault("limit", 50),
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 网关确认到账（processing → completed）
	api.Post("/payouts/{id:int64}/settle", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := ledger.CompletePayout(ctx.Request().Context(), id); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"settled": true})
	})

	// 网关转账失败（pending/processing → failed，释放订单）
	api.Post("/payouts/{id:int64}/fail", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Note string `json:"note"`
		}
		_ = ctx.ReadJSON(&req)
		if req.Note == "" {
			req.Note = "transfer failed"
		}
		if err := ledger.FailPayout(ctx.Request().Context(), id, req.Note); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"failed": true})
	})

	// 重新投递 pending 提现（MQ 投递失败时的补偿入口）
	api.Post("/payouts/{id:int64}/enqueue", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := payoutRepo.GetByID(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		if p.Status != payout.StatusPending {
			fail(ctx, service.ErrInvalidTransition)
			return
		}
		body, _ := json.Marshal(service.PayoutMessage{PayoutID: p.ID})
		if err := mq.Publish(ctx.Request().Context(), mqConn, mq.PayoutQueue, body); err != nil {
			service.GetMonitor().RecordMQError()
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"enqueued": true})
	})
}
