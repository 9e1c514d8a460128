package api

import (
	"strconv"

	"github.com/buildhub-next/internal/http/response"
	"github.com/buildhub-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListNotifications 获取站内通知列表
func (h *Handler) ListNotifications(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	notifications, total, err := h.NotificationService.ListNotifications(actorID, repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		OnlyUnread: c.Query("unread") == "1",
	})
	if err != nil {
		respondWithMappedError(c, err, notificationErrorRules, response.CodeInternal, "通知查询失败")
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, notifications, pagination)
}

// MarkNotificationRead 标记通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	notificationID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.NotificationService.MarkNotificationRead(notificationID, actorID); err != nil {
		respondWithMappedError(c, err, notificationErrorRules, response.CodeInternal, "通知更新失败")
		return
	}
	response.Success(c, nil)
}

// ListEmailFailures 获取邮件失败记录（管理员）
func (h *Handler) ListEmailFailures(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	failures, err := h.NotificationService.ListEmailFailures(actorID, limit)
	if err != nil {
		respondWithMappedError(c, err, notificationErrorRules, response.CodeInternal, "失败记录查询失败")
		return
	}
	response.Success(c, failures)
}
