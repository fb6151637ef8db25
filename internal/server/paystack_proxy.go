package server

import (
	"errors"

	"github.com/kataras/iris/v12"

	"github.com/TORY-SKY/swappNaija/internal/middleware"
	"github.com/TORY-SKY/swappNaija/internal/paystack"
	"github.com/TORY-SKY/swappNaija/internal/service"
)

// registerPaystackProxy 支付网关代理
// {action, ...payload} 分发，统一 {data} / {error} 包裹；secret 永不出服务端。
// 上游错误信息原样透传，非法 action 返回 400，其余失败一律 500 ——
// 调用方靠 message 而不是状态码区分失败类型。
func registerPaystackProxy(api iris.Party, gateway *paystack.Client) {
	api.Post("/paystack", middleware.GatewayRateLimit(), func(ctx iris.Context) {
		var req struct {
			Action        string `json:"action"`
			Reference     string `json:"reference"`
			Name          string `json:"name"`
			AccountNumber string `json:"accountNumber"`
			BankCode      string `json:"bankCode"`
			Amount        int64  `json:"amount"` // naira
			RecipientCode string `json:"recipientCode"`
			Reason        string `json:"reason"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"error": err.Error()})
			return
		}

		rctx := ctx.Request().Context()
		var (
			data interface{}
			err  error
		)
		switch req.Action {
		case "verify-payment":
			data, err = gateway.VerifyTransaction(rctx, req.Reference)
		case "create-recipient":
			var code string
			code, err = gateway.CreateRecipient(rctx, req.Name, req.AccountNumber, req.BankCode)
			data = iris.Map{"recipient_code": code}
		case "initiate-transfer":
			// naira → kobo
			data, err = gateway.InitiateTransfer(rctx, req.Amount*100, req.RecipientCode, req.Reason)
		case "verify-account":
			var name string
			name, err = gateway.ResolveAccount(rctx, req.AccountNumber, req.BankCode)
			data = iris.Map{"account_name": name}
		default:
			ctx.StopWithJSON(400, iris.Map{"error": "Invalid action"})
			return
		}
		if err != nil {
			service.GetMonitor().RecordGatewayError()
			ctx.StopWithJSON(500, iris.Map{"error": upstreamMessage(err)})
			return
		}
		_ = ctx.JSON(iris.Map{"data": data})
	})

	api.Get("/paystack", func(ctx iris.Context) {
		if ctx.URLParam("action") != "get-banks" {
			ctx.StopWithJSON(400, iris.Map{"error": "Invalid action"})
			return
		}
		banks, err := gateway.ListBanks(ctx.Request().Context())
		if err != nil {
			service.GetMonitor().RecordGatewayError()
			ctx.StopWithJSON(500, iris.Map{"error": upstreamMessage(err)})
			return
		}
		_ = ctx.JSON(iris.Map{"data": banks})
	})
}

func upstreamMessage(err error) string {
	var ge *paystack.GatewayError
	if errors.As(err, &ge) {
		return ge.Message
	}
	return err.Error()
}
