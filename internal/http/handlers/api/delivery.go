package api

import (
	"strconv"

	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/http/response"
	"github.com/buildhub-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AppendDeliveryNoteRequest 追加配送备注请求
type AppendDeliveryNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

// DispatchDelivery 配送员发货
func (h *Handler) DispatchDelivery(c *gin.Context) {
	h.advanceDelivery(c, constants.DeliveryActionDispatch)
}

// CompleteDelivery 配送员送达
func (h *Handler) CompleteDelivery(c *gin.Context) {
	h.advanceDelivery(c, constants.DeliveryActionDeliver)
}

func (h *Handler) advanceDelivery(c *gin.Context, action string) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	deliveryID, ok := parseIDParam(c)
	if !ok {
		return
	}

	delivery, err := h.DeliveryService.AdvanceDelivery(deliveryID, action, actorID)
	if err != nil {
		respondWithMappedError(c, err, deliveryErrorRules, response.CodeInternal, "配送状态更新失败")
		return
	}
	response.Success(c, delivery)
}

// AppendDeliveryNote 追加配送备注
func (h *Handler) AppendDeliveryNote(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	deliveryID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req AppendDeliveryNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	delivery, err := h.DeliveryService.AppendNote(deliveryID, actorID, req.Note)
	if err != nil {
		respondWithMappedError(c, err, deliveryErrorRules, response.CodeInternal, "备注追加失败")
		return
	}
	response.Success(c, delivery)
}

// GetDelivery 获取配送单详情
func (h *Handler) GetDelivery(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	deliveryID, ok := parseIDParam(c)
	if !ok {
		return
	}

	delivery, err := h.DeliveryService.GetDelivery(deliveryID, actorID)
	if err != nil {
		respondWithMappedError(c, err, deliveryErrorRules, response.CodeInternal, "配送单查询失败")
		return
	}
	response.Success(c, delivery)
}

// ListDeliveries 获取配送单列表
func (h *Handler) ListDeliveries(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.DeliveryListFilter{
		Page:     page,
		PageSize: pageSize,
	}
	switch c.Query("state") {
	case "pending":
		filter.OnlyPending = true
	case "in_transit":
		filter.OnlyInTransit = true
	case "completed":
		filter.OnlyCompleted = true
	}

	deliveries, total, err := h.DeliveryService.ListDeliveries(actorID, filter)
	if err != nil {
		respondWithMappedError(c, err, deliveryErrorRules, response.CodeInternal, "配送单查询失败")
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, deliveries, pagination)
}
