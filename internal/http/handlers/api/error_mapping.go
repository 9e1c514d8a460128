package api

import (
	"errors"

	"github.com/buildhub-next/internal/http/response"
	"github.com/buildhub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

// actorErrorRules 所有操作共享的操作者校验错误
var actorErrorRules = []mappedHandlerError{
	{target: service.ErrProfileNotFound, code: response.CodeUnauthorized, msg: "操作者档案不存在"},
	{target: service.ErrProfileInactive, code: response.CodeForbidden, msg: "操作者档案已停用"},
	{target: service.ErrActorForbidden, code: response.CodeForbidden, msg: "没有执行该操作的权限"},
}

var orderErrorRules = append([]mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "订单不存在"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, msg: "数量必须为正整数"},
	{target: service.ErrOrderTransitionInvalid, code: response.CodeConflict, msg: "当前订单状态不允许该操作"},
	{target: service.ErrMaterialNotFound, code: response.CodeNotFound, msg: "建材不存在"},
	{target: service.ErrMaterialInactive, code: response.CodeBadRequest, msg: "建材已下架"},
	{target: service.ErrInsufficientStock, code: response.CodeConflict, msg: "库存不足"},
	{target: service.ErrSupplierNotFound, code: response.CodeNotFound, msg: "供应商档案不存在"},
}, actorErrorRules...)

var materialErrorRules = append([]mappedHandlerError{
	{target: service.ErrMaterialNotFound, code: response.CodeNotFound, msg: "建材不存在"},
	{target: service.ErrMaterialInvalid, code: response.CodeBadRequest, msg: "建材参数不合法"},
	{target: service.ErrMaterialHasOrders, code: response.CodeConflict, msg: "建材已被订单引用，只能下架"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, msg: "数量必须为正整数"},
	{target: service.ErrSupplierNotFound, code: response.CodeNotFound, msg: "供应商档案不存在"},
}, actorErrorRules...)

var deliveryErrorRules = append([]mappedHandlerError{
	{target: service.ErrDeliveryNotFound, code: response.CodeNotFound, msg: "配送单不存在"},
	{target: service.ErrDeliveryActionInvalid, code: response.CodeBadRequest, msg: "不支持的配送操作"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "订单不存在"},
	{target: service.ErrOrderTransitionInvalid, code: response.CodeConflict, msg: "当前订单状态不允许该操作"},
}, actorErrorRules...)

var profileErrorRules = append([]mappedHandlerError{
	{target: service.ErrProfileNotFound, code: response.CodeNotFound, msg: "档案不存在"},
	{target: service.ErrProfileInvalid, code: response.CodeBadRequest, msg: "档案参数不合法"},
	{target: service.ErrProfileUsernameTaken, code: response.CodeConflict, msg: "用户名已被占用"},
	{target: service.ErrSupplierNotFound, code: response.CodeNotFound, msg: "供应商档案不存在"},
}, actorErrorRules...)

var notificationErrorRules = append([]mappedHandlerError{
	{target: service.ErrNotificationNotFound, code: response.CodeNotFound, msg: "通知不存在"},
}, actorErrorRules...)

var reportErrorRules = append([]mappedHandlerError{
	{target: service.ErrReportRangeInvalid, code: response.CodeBadRequest, msg: "统计区间不合法"},
	{target: service.ErrSupplierNotFound, code: response.CodeNotFound, msg: "供应商档案不存在"},
}, actorErrorRules...)
