package server

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	radix "github.com/mediocregopher/radix/v3"

	"github.com/TORY-SKY/swappNaija/internal/auth"
	"github.com/TORY-SKY/swappNaija/internal/config"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/order"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/payout"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/product"
	"github.com/TORY-SKY/swappNaija/internal/infra/mq"
	"github.com/TORY-SKY/swappNaija/internal/infra/redis"
	"github.com/TORY-SKY/swappNaija/internal/middleware"
	"github.com/TORY-SKY/swappNaija/internal/paystack"
	"github.com/TORY-SKY/swappNaija/internal/repository/mysql"
	"github.com/TORY-SKY/swappNaija/internal/service"
	"github.com/TORY-SKY/swappNaija/internal/storage"
)

const redisBanksKey = "swapp:paystack:banks"

// RegisterRoutes 注册所有前台 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)
	gateway := paystack.New(&cfg.Paystack)
	blobs := storage.NewDiskStore(&cfg.Storage)

	// 商品图片静态托管
	app.HandleDir(cfg.Storage.PublicBase, iris.Dir(cfg.Storage.Dir))

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	payoutRepo := mysql.NewPayoutRepository(db)

	userSvc := service.NewUserService(userRepo, gateway, &cfg.JWT)
	productSvc := service.NewProductService(productRepo, blobs, redisClient)
	ledger := service.NewLedgerService(db, gateway, mqConn)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"code": 0,
			"msg":  "ok",
		})
	})

	// 用户注册/登录
	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Email    string `json:"email"`
			Phone    string `json:"phone"`
			UserType string `json:"user_type"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), req.Username, req.Password, req.Email, req.Phone, req.UserType)
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ok(ctx, u)
	})

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, err := userSvc.Login(ctx.Request().Context(), req.Username, req.Password)
		if err != nil {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": err.Error()})
			return
		}
		ok(ctx, iris.Map{"token": token})
	})

	// 银行列表（Redis 缓存 1 小时）
	api.Get("/banks", func(ctx iris.Context) {
		var raw string
		if err := redisClient.Do(radix.Cmd(&raw, "GET", redisBanksKey)); err == nil && raw != "" {
			var banks []paystack.Bank
			if json.Unmarshal([]byte(raw), &banks) == nil {
				ok(ctx, banks)
				return
			}
		}
		banks, err := gateway.ListBanks(ctx.Request().Context())
		if err != nil {
			service.GetMonitor().RecordGatewayError()
			fail(ctx, err)
			return
		}
		if body, err := json.Marshal(banks); err == nil {
			_ = redisClient.Do(radix.FlatCmd(nil, "SETEX", redisBanksKey, 3600, body))
		}
		ok(ctx, banks)
	})

	// 需要登录的接口
	tokenCache := auth.NewTokenCache(
		redisClient,
		auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas),
		time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second,
	)
	authAPI := api.Party("/", func(ctx iris.Context) {
		token := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}
		rctx := ctx.Request().Context()
		claims, hit, _ := tokenCache.Get(rctx, token)
		if !hit {
			var err error
			claims, err = auth.ParseToken(&cfg.JWT, token)
			if err != nil {
				ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
				return
			}
			_ = tokenCache.Set(rctx, token, claims)
		}
		ctx.Values().Set("uid", claims.UID)
		ctx.Values().Set("username", claims.Username)
		ctx.Next()
	})

	uid := func(ctx iris.Context) int64 {
		return ctx.Values().GetInt64Default("uid", 0)
	}

	// ---------------- 个人资料 ----------------

	authAPI.Get("/me", func(ctx iris.Context) {
		u, err := userSvc.GetProfile(ctx.Request().Context(), uid(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, u)
	})

	// 绑定银行账户：核验账号 + 注册收款人
	authAPI.Put("/me/bank", func(ctx iris.Context) {
		var req struct {
			AccountNumber string `json:"account_number"`
			BankCode      string `json:"bank_code"`
			BankName      string `json:"bank_name"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u, err := userSvc.UpdateBankDetails(ctx.Request().Context(), uid(ctx), req.AccountNumber, req.BankCode, req.BankName)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, u)
	})

	// ---------------- 商品 ----------------

	// 商品列表：分类 / 关键字 / 免费 / 精选
	authAPI.Get("/products", func(ctx iris.Context) {
		opts := product.ListOptions{
			Category: ctx.URLParam("category"),
			Keyword:  ctx.URLParam("q"),
			FreeOnly: ctx.URLParamBoolDefault("free", false),
			Featured: ctx.URLParamBoolDefault("featured", false),
			Limit:    ctx.URLParamIntDefault("limit", 0),
		}
		list, err := productSvc.List(ctx.Request().Context(), opts)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 我的商品（含已下架/已售出）
	authAPI.Get("/products/mine", func(ctx iris.Context) {
		list, err := productSvc.List(ctx.Request().Context(), product.ListOptions{OwnerID: uid(ctx)})
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 商品详情（累加浏览数）
	authAPI.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// 发布商品
	authAPI.Post("/products", func(ctx iris.Context) {
		var p product.Product
		if err := ctx.ReadJSON(&p); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		created, err := productSvc.Create(ctx.Request().Context(), uid(ctx), &p)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, created)
	})

	// 编辑商品
	authAPI.Put("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var p product.Product
		if err := ctx.ReadJSON(&p); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p.ID = id
		if err := productSvc.Update(ctx.Request().Context(), uid(ctx), &p); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// 上下架
	authAPI.Post("/products/{id:int64}/status", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if err := productSvc.SetStatus(ctx.Request().Context(), uid(ctx), id, req.Status); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"status": req.Status})
	})

	// 上传商品图片（multipart）
	authAPI.Post("/products/{id:int64}/images", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		f, fh, err := ctx.FormFile("file")
		if err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		defer f.Close()
		url, err := productSvc.UploadImage(ctx.Request().Context(), uid(ctx), id, fh.Filename, f)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"url": url})
	})

	// ---------------- 订单 ----------------

	// 下单
	authAPI.Post("/orders", middleware.CheckoutRateLimit(), func(ctx iris.Context) {
		var req struct {
			ProductID        int64                 `json:"product_id"`
			Quantity         int64                 `json:"quantity"`
			ShippingAddress  order.ShippingAddress `json:"shipping_address"`
			PaymentReference string                `json:"payment_reference"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		o, err := ledger.CreateOrder(ctx.Request().Context(), uid(ctx), req.ProductID, req.Quantity, req.ShippingAddress, req.PaymentReference)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// 订单列表：role=buyer|seller，支持按状态过滤
	authAPI.Get("/orders", func(ctx iris.Context) {
		opts := order.ListOptions{
			DeliveryStatus: order.DeliveryStatus(ctx.URLParam("status")),
			PaymentStatus:  order.PaymentStatus(ctx.URLParam("payment_status")),
			Limit:          ctx.URLParamIntDefault("limit", 0),
		}
		if ctx.URLParamDefault("role", "buyer") == "seller" {
			opts.SellerID = uid(ctx)
		} else {
			opts.BuyerID = uid(ctx)
		}
		list, err := orderRepo.List(ctx.Request().Context(), opts)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 订单详情
	authAPI.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		o, err := ledger.GetOrder(ctx.Request().Context(), uid(ctx), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// 推进履约状态（发货/送达），可附带物流信息
	authAPI.Post("/orders/{id:int64}/status", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Status       order.DeliveryStatus `json:"status"`
			TrackingInfo *order.TrackingInfo  `json:"tracking_info"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		o, err := ledger.UpdateOrderStatus(ctx.Request().Context(), uid(ctx), id, req.Status, req.TrackingInfo)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// 买家取消（仅未发货）
	authAPI.Post("/orders/{id:int64}/cancel", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := ledger.CancelOrder(ctx.Request().Context(), uid(ctx), id); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"cancelled": true})
	})

	// 买家确认收货
	authAPI.Post("/orders/{id:int64}/confirm", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := ledger.ConfirmDelivery(ctx.Request().Context(), uid(ctx), id); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"completed": true})
	})

	// 补充支付：校验引用并标记已支付
	authAPI.Post("/orders/{id:int64}/verify-payment", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Reference string `json:"reference"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		o, err := ledger.ConfirmPayment(ctx.Request().Context(), uid(ctx), id, req.Reference)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// ---------------- 提现 ----------------

	// 可提现余额
	authAPI.Get("/payouts/eligible", func(ctx iris.Context) {
		total, count, err := ledger.EligibleProceeds(ctx.Request().Context(), uid(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"amount": total, "orders": count})
	})

	// 申请提现
	authAPI.Post("/payouts", middleware.CheckoutRateLimit(), func(ctx iris.Context) {
		var req struct {
			Amount      int64              `json:"amount"`
			BankDetails payout.BankDetails `json:"bank_details"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p, err := ledger.RequestPayout(ctx.Request().Context(), uid(ctx), req.Amount, req.BankDetails)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// 我的提现记录
	authAPI.Get("/payouts", func(ctx iris.Context) {
		list, err := payoutRepo.List(ctx.Request().Context(), payout.ListOptions{
			SellerID: uid(ctx),
			Status:   payout.Status(ctx.URLParam("status")),
			Limit:    ctx.URLParamIntDefault("limit", 0),
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	// 提现详情
	authAPI.Get("/payouts/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := ledger.GetPayout(ctx.Request().Context(), uid(ctx), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// 取消 pending 提现
	authAPI.Post("/payouts/{id:int64}/cancel", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := ledger.CancelPayout(ctx.Request().Context(), uid(ctx), id); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"cancelled": true})
	})

	// 支付网关代理（零逻辑透传）
	registerPaystackProxy(authAPI, gateway)
}
