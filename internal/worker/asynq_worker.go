package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/buildhub-next/internal/logger"
	"github.com/buildhub-next/internal/provider"
	"github.com/buildhub-next/internal/queue"
	"github.com/buildhub-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderNotification, c.handleOrderNotification)
	mux.HandleFunc(queue.TaskDeliveryAssign, c.handleDeliveryAssign)
}

func (c *Consumer) handleOrderNotification(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_notification_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.Event == "" {
		logger.Debugw("worker_order_notification_skip_invalid_payload",
			"order_id", payload.OrderID,
			"event", payload.Event,
		)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_order_notification_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.NotificationService.Dispatch(payload); err != nil {
		logger.Warnw("worker_order_notification_dispatch_failed",
			"order_id", payload.OrderID,
			"event", payload.Event,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleDeliveryAssign(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_delivery_assign_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DeliveryAssignPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_delivery_assign_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_delivery_assign_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.DeliveryService == nil {
		logger.Warnw("worker_delivery_assign_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	delivery, err := c.DeliveryService.Assign(payload.OrderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("worker_delivery_assign_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_delivery_assign_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if delivery == nil {
		// 仍无可用配送员，交给巡检继续兜底
		logger.Debugw("worker_delivery_assign_still_unassigned", "order_id", payload.OrderID)
		return nil
	}
	return nil
}
