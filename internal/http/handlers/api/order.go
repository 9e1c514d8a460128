package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/buildhub-next/internal/http/response"
	"github.com/buildhub-next/internal/repository"
	"github.com/buildhub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	MaterialID       uint   `json:"material_id" binding:"required"`
	Quantity         int    `json:"quantity" binding:"required"`
	DeliveryLocation string `json:"delivery_location"`
}

// PlaceOrder 工程师下单
func (h *Handler) PlaceOrder(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	result, err := h.OrderService.PlaceOrder(service.PlaceOrderInput{
		EngineerID:       actorID,
		MaterialID:       req.MaterialID,
		Quantity:         req.Quantity,
		DeliveryLocation: req.DeliveryLocation,
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "下单失败")
		return
	}

	response.Success(c, result)
}

// ConfirmOrder 供应商确认订单
func (h *Handler) ConfirmOrder(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}

	order, err := h.OrderService.ConfirmOrder(orderID, actorID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "订单确认失败")
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}

	order, err := h.OrderService.CancelOrder(orderID, actorID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "订单取消失败")
		return
	}
	response.Success(c, order)
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrder(orderID, actorID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "订单查询失败")
		return
	}
	response.Success(c, order)
}

// ListOrders 获取订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
	if from, ok := parseTimeQuery(c, "created_from"); ok {
		filter.CreatedFrom = from
	}
	if to, ok := parseTimeQuery(c, "created_to"); ok {
		filter.CreatedTo = to
	}

	orders, total, err := h.OrderService.ListOrders(actorID, filter)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "订单查询失败")
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// parseIDParam 解析路径中的 :id
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "非法的资源 ID", nil)
		return 0, false
	}
	return uint(id), true
}

// parseTimeQuery 解析 RFC3339 时间查询参数
func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}
