package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/buildhub-next/internal/authz"
	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/logger"
	"github.com/buildhub-next/internal/models"
	"github.com/buildhub-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo           repository.OrderRepository
	materialRepo        repository.MaterialRepository
	profileRepo         repository.ProfileRepository
	supplierRepo        repository.SupplierRepository
	authzService        *authz.Service
	deliveryService     *DeliveryService
	notificationService *NotificationService
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, materialRepo repository.MaterialRepository, profileRepo repository.ProfileRepository, supplierRepo repository.SupplierRepository, authzService *authz.Service, deliveryService *DeliveryService, notificationService *NotificationService) *OrderService {
	return &OrderService{
		orderRepo:           orderRepo,
		materialRepo:        materialRepo,
		profileRepo:         profileRepo,
		supplierRepo:        supplierRepo,
		authzService:        authzService,
		deliveryService:     deliveryService,
		notificationService: notificationService,
	}
}

// PlaceOrderInput 下单输入
type PlaceOrderInput struct {
	EngineerID       uint
	MaterialID       uint
	Quantity         int
	DeliveryLocation string
}

// PlaceOrderResult 下单结果
type PlaceOrderResult struct {
	Order *models.Order `json:"order"`
	// Delivery 下单后即时分配的配送单；无可用配送员时为空，稍后由重试任务补齐
	Delivery           *models.Delivery `json:"delivery,omitempty"`
	AssignmentDeferred bool             `json:"assignment_deferred"`
}

// PlaceOrder 工程师下单
// 库存预占与订单创建在同一事务内完成；配送分配与通知是事后副作用，失败不影响下单。
func (s *OrderService) PlaceOrder(input PlaceOrderInput) (*PlaceOrderResult, error) {
	engineer, err := loadActor(s.profileRepo, input.EngineerID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, engineer, constants.AuthzObjectOrder, constants.AuthzActionPlace); err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	var order *models.Order
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		materialRepo := s.materialRepo.WithTx(tx)

		material, err := materialRepo.LockByID(input.MaterialID)
		if err != nil {
			return err
		}
		if material == nil {
			return ErrMaterialNotFound
		}
		if !material.IsActive {
			return ErrMaterialInactive
		}

		affected, err := materialRepo.ReserveStock(material.ID, input.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInsufficientStock
		}

		total := material.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
		order = &models.Order{
			OrderNo:          generateOrderNo(),
			EngineerID:       engineer.ID,
			SupplierID:       material.SupplierID,
			MaterialID:       material.ID,
			Quantity:         input.Quantity,
			UnitPrice:        material.UnitPrice,
			TotalPrice:       models.NewMoneyFromDecimal(total),
			Status:           constants.OrderStatusPending,
			DeliveryLocation: strings.TrimSpace(input.DeliveryLocation),
		}
		return s.orderRepo.WithTx(tx).Create(order)
	})
	if err != nil {
		return nil, err
	}

	result := &PlaceOrderResult{Order: order}

	if s.deliveryService != nil {
		delivery, assignErr := s.deliveryService.Assign(order.ID)
		if assignErr != nil {
			logger.Warnw("order_assign_after_place_failed",
				"order_no", order.OrderNo,
				"error", assignErr,
			)
		}
		if delivery != nil {
			result.Delivery = delivery
		} else {
			result.AssignmentDeferred = true
			s.deliveryService.ScheduleAssignRetry(order.ID)
		}
	}

	s.notifyOrderEvent(order.ID, constants.OrderEventPlaced)

	if reloaded, err := s.orderRepo.GetByID(order.ID); err == nil && reloaded != nil {
		result.Order = reloaded
	}
	return result, nil
}

// ConfirmOrder 供应商确认订单（pending → confirmed）
func (s *OrderService) ConfirmOrder(orderID uint, actorID uint) (*models.Order, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectOrder, constants.AuthzActionConfirm); err != nil {
		return nil, err
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.LockByID(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if !isAdmin(actor) {
			supplier, err := s.supplierRepo.WithTx(tx).GetByProfileID(actor.ID)
			if err != nil {
				return err
			}
			if supplier == nil || supplier.ID != order.SupplierID {
				return ErrActorForbidden
			}
		}
		if !canTransition(order.Status, constants.OrderStatusConfirmed) {
			return ErrOrderTransitionInvalid
		}
		return orderRepo.UpdateStatus(order.ID, constants.OrderStatusConfirmed, nil)
	})
	if err != nil {
		return nil, err
	}

	s.notifyOrderEvent(orderID, constants.OrderEventConfirmed)
	return s.orderRepo.GetByID(orderID)
}

// CancelOrder 取消订单（仅 pending / confirmed；库存回补与状态变更同一事务）
func (s *OrderService) CancelOrder(orderID uint, actorID uint) (*models.Order, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectOrder, constants.AuthzActionCancel); err != nil {
		return nil, err
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.LockByID(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if !isAdmin(actor) && order.EngineerID != actor.ID {
			return ErrActorForbidden
		}
		// 重复取消与终态取消都会在这里被拒绝，保证库存只回补一次
		if !canTransition(order.Status, constants.OrderStatusCancelled) {
			return ErrOrderTransitionInvalid
		}

		now := time.Now()
		if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusCancelled, map[string]interface{}{
			"cancelled_at": &now,
		}); err != nil {
			return err
		}

		affected, err := s.materialRepo.WithTx(tx).ReleaseStock(order.MaterialID, order.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			logger.Warnw("order_cancel_stock_release_missed",
				"order_no", order.OrderNo,
				"material_id", order.MaterialID,
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyOrderEvent(orderID, constants.OrderEventCancelled)
	return s.orderRepo.GetByID(orderID)
}

// GetOrder 获取订单详情（按操作者角色做可见性校验）
func (s *OrderService) GetOrder(orderID uint, actorID uint) (*models.Order, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectOrder, constants.AuthzActionRead); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.checkOrderVisibility(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders 订单列表（按操作者角色收敛过滤条件）
func (s *OrderService) ListOrders(actorID uint, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, 0, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectOrder, constants.AuthzActionRead); err != nil {
		return nil, 0, err
	}

	switch actor.Role {
	case constants.RoleEngineer:
		filter.EngineerID = actor.ID
	case constants.RoleSupplier:
		supplier, err := s.supplierRepo.GetByProfileID(actor.ID)
		if err != nil {
			return nil, 0, err
		}
		if supplier == nil {
			return nil, 0, ErrSupplierNotFound
		}
		filter.SupplierID = supplier.ID
	case constants.RoleAdmin:
		// 管理员可见全量
	default:
		return nil, 0, ErrActorForbidden
	}
	return s.orderRepo.List(filter)
}

func (s *OrderService) checkOrderVisibility(order *models.Order, actor *models.Profile) error {
	if isAdmin(actor) {
		return nil
	}
	switch actor.Role {
	case constants.RoleEngineer:
		if order.EngineerID == actor.ID {
			return nil
		}
	case constants.RoleSupplier:
		supplier, err := s.supplierRepo.GetByProfileID(actor.ID)
		if err != nil {
			return err
		}
		if supplier != nil && supplier.ID == order.SupplierID {
			return nil
		}
	case constants.RoleDelivery:
		if order.Delivery != nil && order.Delivery.AgentID != nil && *order.Delivery.AgentID == actor.ID {
			return nil
		}
	}
	return ErrActorForbidden
}

// notifyOrderEvent 投递订单事件通知（尽力而为，绝不向调用方抛错）
func (s *OrderService) notifyOrderEvent(orderID uint, event string) {
	if s.notificationService == nil {
		return
	}
	if err := s.notificationService.NotifyOrderEvent(orderID, event); err != nil {
		logger.Warnw("order_event_notify_enqueue_failed",
			"order_id", orderID,
			"event", event,
			"error", err,
		)
	}
}

// generateOrderNo 生成订单号（BH + 时间戳 + 随机数字）
func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart, err := randNumeric(6)
	if err != nil {
		randPart = fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("BH%s%s", now, randPart)
}

func randNumeric(length int) (string, error) {
	var builder strings.Builder
	for i := 0; i < length; i++ {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		builder.WriteString(v.String())
	}
	return builder.String(), nil
}
