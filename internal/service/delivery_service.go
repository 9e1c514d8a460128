package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/buildhub-next/internal/authz"
	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/logger"
	"github.com/buildhub-next/internal/models"
	"github.com/buildhub-next/internal/queue"
	"github.com/buildhub-next/internal/repository"

	"gorm.io/gorm"
)

// DeliveryService 配送服务（分配均衡 + 配送推进）
type DeliveryService struct {
	deliveryRepo        repository.DeliveryRepository
	orderRepo           repository.OrderRepository
	profileRepo         repository.ProfileRepository
	authzService        *authz.Service
	queueClient         *queue.Client
	notificationService *NotificationService
	assignRetryDelay    time.Duration
}

// NewDeliveryService 创建配送服务
func NewDeliveryService(deliveryRepo repository.DeliveryRepository, orderRepo repository.OrderRepository, profileRepo repository.ProfileRepository, authzService *authz.Service, queueClient *queue.Client, notificationService *NotificationService, assignRetryDelay time.Duration) *DeliveryService {
	if assignRetryDelay <= 0 {
		assignRetryDelay = time.Minute
	}
	return &DeliveryService{
		deliveryRepo:        deliveryRepo,
		orderRepo:           orderRepo,
		profileRepo:         profileRepo,
		authzService:        authzService,
		queueClient:         queueClient,
		notificationService: notificationService,
		assignRetryDelay:    assignRetryDelay,
	}
}

// Assign 为订单分配配送员（幂等）
// 规则：候选为所有可用配送员；取在途配送数最少者，并列取 ID 最小者。
// 无候选时不生成配送单，返回 (nil, nil)，由延迟任务与巡检补齐。
func (s *DeliveryService) Assign(orderID uint) (*models.Delivery, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	existing, err := s.deliveryRepo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if isTerminalStatus(order.Status) {
		return nil, nil
	}

	agents, err := s.profileRepo.ListActiveAgents()
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		logger.Infow("delivery_assign_no_agents", "order_no", order.OrderNo)
		return nil, nil
	}

	loads, err := s.deliveryRepo.ActiveLoadByAgent()
	if err != nil {
		return nil, err
	}

	// agents 已按 ID 升序返回，严格小于比较保证并列时选中最小 ID
	chosen := agents[0]
	chosenLoad := loads[chosen.ID]
	for _, agent := range agents[1:] {
		if loads[agent.ID] < chosenLoad {
			chosen = agent
			chosenLoad = loads[agent.ID]
		}
	}

	now := time.Now()
	agentID := chosen.ID
	delivery := &models.Delivery{
		OrderID:  order.ID,
		AgentID:  &agentID,
		Location: s.resolveLocation(order),
		Notes:    appendDeliveryNote("", now, fmt.Sprintf("分配配送员 %s", chosen.Username)),
	}
	if err := s.deliveryRepo.Create(delivery); err != nil {
		// order_id 唯一索引兜底并发分配：冲突时返回已有配送单
		if existing, getErr := s.deliveryRepo.GetByOrderID(order.ID); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	logger.Infow("delivery_assigned",
		"order_no", order.OrderNo,
		"agent_id", chosen.ID,
		"agent_load", chosenLoad,
	)
	return delivery, nil
}

// ScheduleAssignRetry 投递延迟分配任务（队列未启用时静默跳过，等待巡检）
func (s *DeliveryService) ScheduleAssignRetry(orderID uint) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	if err := s.queueClient.EnqueueDeliveryAssign(queue.DeliveryAssignPayload{OrderID: orderID}, s.assignRetryDelay); err != nil {
		logger.Warnw("delivery_assign_retry_enqueue_failed",
			"order_id", orderID,
			"error", err,
		)
	}
}

// RetryUnassigned 重试未分配订单（巡检任务入口），返回本轮成功分配数
func (s *DeliveryService) RetryUnassigned(limit int) (int, error) {
	orders, err := s.orderRepo.ListAwaitingAssignment(limit)
	if err != nil {
		return 0, err
	}
	assigned := 0
	for _, order := range orders {
		delivery, err := s.Assign(order.ID)
		if err != nil {
			logger.Warnw("delivery_assign_retry_failed",
				"order_no", order.OrderNo,
				"error", err,
			)
			continue
		}
		if delivery != nil {
			assigned++
		}
	}
	return assigned, nil
}

// AdvanceDelivery 推进配送（dispatch / deliver），仅限被分配的配送员操作
// 同一动作重复提交按幂等处理：不改写时间戳，不重复通知。
func (s *DeliveryService) AdvanceDelivery(deliveryID uint, action string, actorID uint) (*models.Delivery, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectDelivery, constants.AuthzActionAdvance); err != nil {
		return nil, err
	}

	normalized := strings.ToLower(strings.TrimSpace(action))
	if normalized != constants.DeliveryActionDispatch && normalized != constants.DeliveryActionDeliver {
		return nil, ErrDeliveryActionInvalid
	}

	event := ""
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		deliveryRepo := s.deliveryRepo.WithTx(tx)
		delivery, err := deliveryRepo.LockByID(deliveryID)
		if err != nil {
			return err
		}
		if delivery == nil {
			return ErrDeliveryNotFound
		}
		if !isAdmin(actor) && (delivery.AgentID == nil || *delivery.AgentID != actor.ID) {
			return ErrActorForbidden
		}

		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.LockByID(delivery.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}

		now := time.Now()
		switch normalized {
		case constants.DeliveryActionDispatch:
			if delivery.DispatchedAt != nil {
				return nil // 幂等：已发货
			}
			if !canTransition(order.Status, constants.OrderStatusDispatched) {
				return ErrOrderTransitionInvalid
			}
			if err := deliveryRepo.Update(delivery.ID, map[string]interface{}{
				"dispatched_at": &now,
				"notes":         appendDeliveryNote(delivery.Notes, now, "已发货"),
			}); err != nil {
				return err
			}
			if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusDispatched, nil); err != nil {
				return err
			}
			event = constants.OrderEventDispatched

		case constants.DeliveryActionDeliver:
			if delivery.DeliveredAt != nil {
				return nil // 幂等：已送达
			}
			if !canTransition(order.Status, constants.OrderStatusDelivered) {
				return ErrOrderTransitionInvalid
			}
			updates := map[string]interface{}{
				"delivered_at": &now,
				"notes":        appendDeliveryNote(delivery.Notes, now, "已送达"),
			}
			// 跳过 dispatch 直接送达时回填发货时间，保证时间戳有序
			if delivery.DispatchedAt == nil {
				updates["dispatched_at"] = &now
			}
			if err := deliveryRepo.Update(delivery.ID, updates); err != nil {
				return err
			}
			if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusDelivered, nil); err != nil {
				return err
			}
			event = constants.OrderEventDelivered
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	delivery, err := s.deliveryRepo.GetByID(deliveryID)
	if err != nil {
		return nil, err
	}
	if event != "" && delivery != nil && s.notificationService != nil {
		if err := s.notificationService.NotifyOrderEvent(delivery.OrderID, event); err != nil {
			logger.Warnw("delivery_event_notify_enqueue_failed",
				"delivery_id", deliveryID,
				"event", event,
				"error", err,
			)
		}
	}
	return delivery, nil
}

// AppendNote 追加配送备注（只追加，历史行不改写）
func (s *DeliveryService) AppendNote(deliveryID uint, actorID uint, note string) (*models.Delivery, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectDelivery, constants.AuthzActionAdvance); err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, ErrDeliveryActionInvalid
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		deliveryRepo := s.deliveryRepo.WithTx(tx)
		delivery, err := deliveryRepo.LockByID(deliveryID)
		if err != nil {
			return err
		}
		if delivery == nil {
			return ErrDeliveryNotFound
		}
		if !isAdmin(actor) && (delivery.AgentID == nil || *delivery.AgentID != actor.ID) {
			return ErrActorForbidden
		}
		return deliveryRepo.Update(delivery.ID, map[string]interface{}{
			"notes": appendDeliveryNote(delivery.Notes, time.Now(), note),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.deliveryRepo.GetByID(deliveryID)
}

// GetDelivery 获取配送单详情（配送员仅可见自己名下）
func (s *DeliveryService) GetDelivery(deliveryID uint, actorID uint) (*models.Delivery, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectDelivery, constants.AuthzActionRead); err != nil {
		return nil, err
	}
	delivery, err := s.deliveryRepo.GetByID(deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, ErrDeliveryNotFound
	}
	if actor.Role == constants.RoleDelivery && (delivery.AgentID == nil || *delivery.AgentID != actor.ID) {
		return nil, ErrActorForbidden
	}
	return delivery, nil
}

// ListDeliveries 配送单列表（配送员固定收敛到自己名下）
func (s *DeliveryService) ListDeliveries(actorID uint, filter repository.DeliveryListFilter) ([]models.Delivery, int64, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, 0, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectDelivery, constants.AuthzActionRead); err != nil {
		return nil, 0, err
	}
	if actor.Role == constants.RoleDelivery {
		filter.AgentID = actor.ID
	}
	return s.deliveryRepo.List(filter)
}

// resolveLocation 配送地址回退链：订单收货地址 → 供应商档案地址 → 空
func (s *DeliveryService) resolveLocation(order *models.Order) string {
	if location := strings.TrimSpace(order.DeliveryLocation); location != "" {
		return location
	}
	if order.Supplier != nil && order.Supplier.Profile != nil {
		if address := strings.TrimSpace(order.Supplier.Profile.Address); address != "" {
			return address
		}
	}
	return ""
}

// appendDeliveryNote 追加一行带时间戳的备注
func appendDeliveryNote(existing string, at time.Time, line string) string {
	entry := fmt.Sprintf("[%s] %s", at.Format("2006-01-02 15:04:05"), strings.TrimSpace(line))
	if strings.TrimSpace(existing) == "" {
		return entry
	}
	return existing + "\n" + entry
}
