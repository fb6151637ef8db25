package server

import (
	"errors"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/TORY-SKY/swappNaija/internal/paystack"
	"github.com/TORY-SKY/swappNaija/internal/service"
)

// statusFor 服务层错误到 HTTP 状态码的映射
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return iris.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidActor):
		return iris.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrProductUnavailable):
		return iris.StatusConflict
	case errors.Is(err, service.ErrMissingRecipientCode),
		errors.Is(err, service.ErrNoEligibleOrders),
		errors.Is(err, service.ErrAmountExceedsProceeds):
		return iris.StatusBadRequest
	}
	var ge *paystack.GatewayError
	if errors.As(err, &ge) {
		return iris.StatusBadGateway
	}
	return iris.StatusInternalServerError
}

// fail 统一错误应答
func fail(ctx iris.Context, err error) {
	code := statusFor(err)
	ctx.StopWithJSON(code, iris.Map{"code": code, "msg": err.Error()})
}

// ok 统一成功应答
func ok(ctx iris.Context, data interface{}) {
	_ = ctx.JSON(iris.Map{"code": 0, "data": data})
}
