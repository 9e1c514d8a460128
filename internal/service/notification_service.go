package service

import (
	"errors"
	"fmt"

	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/logger"
	"github.com/buildhub-next/internal/models"
	"github.com/buildhub-next/internal/queue"
	"github.com/buildhub-next/internal/repository"

	"github.com/hibiken/asynq"
)

// NotificationService 通知派发服务
// 通知永远是尽力而为：入队失败只记日志，绝不阻塞或回滚业务事务。
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	orderRepo        repository.OrderRepository
	profileRepo      repository.ProfileRepository
	emailService     *EmailService
	queueClient      *queue.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository, orderRepo repository.OrderRepository, profileRepo repository.ProfileRepository, emailService *EmailService, queueClient *queue.Client) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		orderRepo:        orderRepo,
		profileRepo:      profileRepo,
		emailService:     emailService,
		queueClient:      queueClient,
	}
}

// NotifyOrderEvent 投递订单事件通知
// 队列启用时异步派发（带重试）；未启用时内联派发且吞掉错误。
func (s *NotificationService) NotifyOrderEvent(orderID uint, event string) error {
	if !isKnownOrderEvent(event) {
		return ErrNotificationEventInvalid
	}
	payload := queue.OrderNotificationPayload{OrderID: orderID, Event: event}
	if s.queueClient != nil && s.queueClient.Enabled() {
		return s.queueClient.EnqueueOrderNotification(payload, asynq.MaxRetry(5))
	}

	if err := s.Dispatch(payload); err != nil {
		logger.Warnw("order_event_inline_dispatch_failed",
			"order_id", orderID,
			"event", event,
			"error", err,
		)
	}
	return nil
}

// Dispatch 派发单个订单事件：写站内通知 + 发送邮件
// 返回非 nil 表示存在可重试的发送失败（asynq 将按退避重试）。
func (s *NotificationService) Dispatch(payload queue.OrderNotificationPayload) error {
	order, err := s.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Warnw("order_event_dispatch_order_missing", "order_id", payload.OrderID)
		return nil
	}

	subject, body := buildOrderEventContent(order, payload.Event)
	recipients := s.resolveRecipients(order, payload.Event)
	if len(recipients) == 0 {
		return nil
	}

	var retryable error
	for _, recipient := range recipients {
		if err := s.notificationRepo.Create(&models.Notification{
			RecipientID: recipient.ID,
			Message:     subject,
			Link:        fmt.Sprintf("/orders/%d", order.ID),
		}); err != nil {
			logger.Errorw("notification_persist_failed",
				"order_no", order.OrderNo,
				"recipient_id", recipient.ID,
				"error", err,
			)
		}

		if err := s.sendEventEmail(order, payload.Event, recipient.Email, subject, body); err != nil {
			retryable = err
		}
	}
	return retryable
}

// sendEventEmail 发送事件邮件；失败持久化为 EmailFailure
// 永久性拒收不再重试，其余错误上抛触发 asynq 重试。
func (s *NotificationService) sendEventEmail(order *models.Order, event, toEmail, subject, body string) error {
	if s.emailService == nil || toEmail == "" {
		return nil
	}
	err := s.emailService.Send(toEmail, subject, body)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEmailServiceDisabled) || errors.Is(err, ErrEmailServiceNotConfigured) {
		logger.Debugw("order_event_email_skipped", "order_no", order.OrderNo, "reason", err.Error())
		return nil
	}

	failure := &models.EmailFailure{
		OrderID:        order.ID,
		Event:          event,
		RecipientEmail: toEmail,
		Subject:        subject,
		Body:           body,
		LastError:      err.Error(),
	}
	if persistErr := s.notificationRepo.CreateEmailFailure(failure); persistErr != nil {
		logger.Errorw("email_failure_persist_failed",
			"order_no", order.OrderNo,
			"recipient", toEmail,
			"error", persistErr,
		)
	}

	if errors.Is(err, ErrEmailRecipientRejected) || errors.Is(err, ErrInvalidEmail) {
		logger.Warnw("order_event_email_rejected",
			"order_no", order.OrderNo,
			"recipient", toEmail,
			"error", err,
		)
		return nil
	}
	return err
}

// resolveRecipients 按事件解析收件人
// placed 同时通知工程师与供应商，其余事件只通知工程师。
func (s *NotificationService) resolveRecipients(order *models.Order, event string) []*models.Profile {
	recipients := make([]*models.Profile, 0, 2)
	if order.Engineer != nil {
		recipients = append(recipients, order.Engineer)
	}
	if event == constants.OrderEventPlaced && order.Supplier != nil && order.Supplier.Profile != nil {
		recipients = append(recipients, order.Supplier.Profile)
	}
	return recipients
}

// ListNotifications 站内通知列表（仅本人）
func (s *NotificationService) ListNotifications(actorID uint, filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, 0, err
	}
	filter.RecipientID = actor.ID
	return s.notificationRepo.List(filter)
}

// MarkNotificationRead 标记通知已读（仅本人）
func (s *NotificationService) MarkNotificationRead(notificationID uint, actorID uint) error {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return err
	}
	affected, err := s.notificationRepo.MarkRead(notificationID, actor.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// ListEmailFailures 查看最近的邮件失败记录（管理员排查用）
func (s *NotificationService) ListEmailFailures(actorID uint, limit int) ([]models.EmailFailure, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if !isAdmin(actor) {
		return nil, ErrActorForbidden
	}
	return s.notificationRepo.ListEmailFailures(limit)
}

func isKnownOrderEvent(event string) bool {
	switch event {
	case constants.OrderEventPlaced,
		constants.OrderEventConfirmed,
		constants.OrderEventDispatched,
		constants.OrderEventDelivered,
		constants.OrderEventCancelled:
		return true
	}
	return false
}

// buildOrderEventContent 构建事件邮件主题与正文
func buildOrderEventContent(order *models.Order, event string) (string, string) {
	materialName := ""
	if order.Material != nil {
		materialName = order.Material.Name
	}
	amount := order.TotalPrice.String()

	var subject, lead string
	switch event {
	case constants.OrderEventPlaced:
		subject = fmt.Sprintf("订单已创建：%s", order.OrderNo)
		lead = "订单已创建，等待供应商确认。"
	case constants.OrderEventConfirmed:
		subject = fmt.Sprintf("订单已确认：%s", order.OrderNo)
		lead = "供应商已确认订单，备货中。"
	case constants.OrderEventDispatched:
		subject = fmt.Sprintf("订单已发货：%s", order.OrderNo)
		lead = "订单已发货，配送进行中。"
	case constants.OrderEventDelivered:
		subject = fmt.Sprintf("订单已送达：%s", order.OrderNo)
		lead = "订单已送达，感谢使用。"
	case constants.OrderEventCancelled:
		subject = fmt.Sprintf("订单已取消：%s", order.OrderNo)
		lead = "订单已取消，预占库存已回补。"
	default:
		subject = fmt.Sprintf("订单状态更新：%s", order.OrderNo)
		lead = "订单状态已更新。"
	}

	body := fmt.Sprintf("%s\n\n订单号：%s\n建材：%s\n数量：%d\n金额：%s",
		lead, order.OrderNo, materialName, order.Quantity, amount)
	return subject, body
}
