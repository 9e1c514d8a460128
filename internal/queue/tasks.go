package queue

import (
	"encoding/json"

	"github.com/buildhub-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderNotification 订单事件通知任务
	TaskOrderNotification = constants.TaskOrderNotification
	// TaskDeliveryAssign 配送分配重试任务
	TaskDeliveryAssign = constants.TaskDeliveryAssign
)

// OrderNotificationPayload 订单事件通知任务载荷
type OrderNotificationPayload struct {
	OrderID uint   `json:"order_id"`
	Event   string `json:"event"`
}

// DeliveryAssignPayload 配送分配重试任务载荷
type DeliveryAssignPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderNotificationTask 创建订单事件通知任务
func NewOrderNotificationTask(payload OrderNotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotification, body), nil
}

// NewDeliveryAssignTask 创建配送分配重试任务
func NewDeliveryAssignTask(payload DeliveryAssignPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliveryAssign, body), nil
}
