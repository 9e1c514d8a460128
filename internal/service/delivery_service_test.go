package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/models"
	"github.com/buildhub-next/internal/repository"

	"gorm.io/gorm"
)

func newDeliveryServiceForTest(db *gorm.DB) *DeliveryService {
	return NewDeliveryService(
		repository.NewDeliveryRepository(db),
		repository.NewOrderRepository(db),
		repository.NewProfileRepository(db),
		nil,
		nil,
		nil,
		0,
	)
}

func createTestDelivery(t *testing.T, db *gorm.DB, orderID uint, agentID uint) *models.Delivery {
	t.Helper()
	delivery := &models.Delivery{
		OrderID: orderID,
		AgentID: &agentID,
	}
	if err := db.Create(delivery).Error; err != nil {
		t.Fatalf("create delivery failed: %v", err)
	}
	return delivery
}

func TestAssignPicksLeastLoadedAgent(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	agent1 := createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	agent2 := createTestProfile(t, db, "agent-2", constants.RoleDelivery, true)
	svc := newDeliveryServiceForTest(db)

	// agent1 已有一单在途
	busyOrder := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusConfirmed)
	createTestDelivery(t, db, busyOrder.ID, agent1.ID)

	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	delivery, err := svc.Assign(order.ID)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if delivery == nil || delivery.AgentID == nil {
		t.Fatalf("expected assigned delivery, got: %+v", delivery)
	}
	if *delivery.AgentID != agent2.ID {
		t.Fatalf("expected least loaded agent %d, got %d", agent2.ID, *delivery.AgentID)
	}
}

func TestAssignTieBreaksOnLowestAgentID(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	agent1 := createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	createTestProfile(t, db, "agent-2", constants.RoleDelivery, true)
	svc := newDeliveryServiceForTest(db)

	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	delivery, err := svc.Assign(order.ID)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if delivery == nil || delivery.AgentID == nil || *delivery.AgentID != agent1.ID {
		t.Fatalf("expected lowest-id agent %d, got: %+v", agent1.ID, delivery)
	}
}

func TestAssignSkipsInactiveAgents(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	createTestProfile(t, db, "agent-offline", constants.RoleDelivery, false)
	active := createTestProfile(t, db, "agent-online", constants.RoleDelivery, true)
	svc := newDeliveryServiceForTest(db)

	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	delivery, err := svc.Assign(order.ID)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if delivery == nil || delivery.AgentID == nil || *delivery.AgentID != active.ID {
		t.Fatalf("expected active agent %d, got: %+v", active.ID, delivery)
	}
}

func TestAssignReturnsNilWhenNoAgents(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	svc := newDeliveryServiceForTest(db)

	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	delivery, err := svc.Assign(order.ID)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if delivery != nil {
		t.Fatalf("expected nil delivery when no agents, got: %+v", delivery)
	}

	var count int64
	if err := db.Model(&models.Delivery{}).Count(&count).Error; err != nil {
		t.Fatalf("count deliveries failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no delivery rows, got %d", count)
	}
}

func TestAssignIsIdempotent(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	svc := newDeliveryServiceForTest(db)

	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	first, err := svc.Assign(order.ID)
	if err != nil || first == nil {
		t.Fatalf("first Assign failed: %v", err)
	}
	second, err := svc.Assign(order.ID)
	if err != nil || second == nil {
		t.Fatalf("second Assign failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same delivery %d, got %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&models.Delivery{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count deliveries failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single delivery row, got %d", count)
	}
}

func TestAssignSkipsTerminalOrder(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	svc := newDeliveryServiceForTest(db)

	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusCancelled)
	delivery, err := svc.Assign(order.ID)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if delivery != nil {
		t.Fatalf("expected no assignment for cancelled order, got: %+v", delivery)
	}
}

func TestAssignMissingOrder(t *testing.T) {
	db := newServiceTestDB(t)
	createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	svc := newDeliveryServiceForTest(db)

	_, err := svc.Assign(9999)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got: %v", err)
	}
}

func TestAdvanceDeliveryDispatchThenDeliver(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	agent := createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusConfirmed)
	delivery := createTestDelivery(t, db, order.ID, agent.ID)
	svc := newDeliveryServiceForTest(db)

	dispatched, err := svc.AdvanceDelivery(delivery.ID, constants.DeliveryActionDispatch, agent.ID)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if dispatched.DispatchedAt == nil {
		t.Fatalf("expected dispatched_at set")
	}
	if got := orderStatus(t, db, order.ID); got != constants.OrderStatusDispatched {
		t.Fatalf("expected order dispatched, got %s", got)
	}

	delivered, err := svc.AdvanceDelivery(delivery.ID, constants.DeliveryActionDeliver, agent.ID)
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Fatalf("expected delivered_at set")
	}
	if got := orderStatus(t, db, order.ID); got != constants.OrderStatusDelivered {
		t.Fatalf("expected order delivered, got %s", got)
	}
}

func TestAdvanceDeliveryDispatchIsIdempotent(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	agent := createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusConfirmed)
	delivery := createTestDelivery(t, db, order.ID, agent.ID)
	svc := newDeliveryServiceForTest(db)

	first, err := svc.AdvanceDelivery(delivery.ID, constants.DeliveryActionDispatch, agent.ID)
	if err != nil || first.DispatchedAt == nil {
		t.Fatalf("first dispatch failed: %v", err)
	}
	firstAt := *first.DispatchedAt

	time.Sleep(10 * time.Millisecond)
	second, err := svc.AdvanceDelivery(delivery.ID, constants.DeliveryActionDispatch, agent.ID)
	if err != nil {
		t.Fatalf("repeat dispatch failed: %v", err)
	}
	if second.DispatchedAt == nil || !second.DispatchedAt.Equal(firstAt) {
		t.Fatalf("expected dispatched_at unchanged, got %v vs %v", second.DispatchedAt, firstAt)
	}
}

func TestAdvanceDeliveryDeliverBackfillsDispatchedAt(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	agent := createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusConfirmed)
	delivery := createTestDelivery(t, db, order.ID, agent.ID)
	svc := newDeliveryServiceForTest(db)

	delivered, err := svc.AdvanceDelivery(delivery.ID, constants.DeliveryActionDeliver, agent.ID)
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if delivered.DeliveredAt == nil || delivered.DispatchedAt == nil {
		t.Fatalf("expected both timestamps set, got: %+v", delivered)
	}
	if delivered.DispatchedAt.After(*delivered.DeliveredAt) {
		t.Fatalf("expected dispatched_at <= delivered_at")
	}
}

func TestAdvanceDeliveryByWrongAgentForbidden(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	agent := createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	other := createTestProfile(t, db, "agent-2", constants.RoleDelivery, true)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusConfirmed)
	delivery := createTestDelivery(t, db, order.ID, agent.ID)
	svc := newDeliveryServiceForTest(db)

	_, err := svc.AdvanceDelivery(delivery.ID, constants.DeliveryActionDispatch, other.ID)
	if !errors.Is(err, ErrActorForbidden) {
		t.Fatalf("expected forbidden, got: %v", err)
	}
}

func TestAdvanceDeliveryRejectsUnknownAction(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	agent := createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusConfirmed)
	delivery := createTestDelivery(t, db, order.ID, agent.ID)
	svc := newDeliveryServiceForTest(db)

	_, err := svc.AdvanceDelivery(delivery.ID, "teleport", agent.ID)
	if !errors.Is(err, ErrDeliveryActionInvalid) {
		t.Fatalf("expected action invalid, got: %v", err)
	}
}

func TestAppendNoteAppendsLines(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	agent := createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusConfirmed)
	delivery := createTestDelivery(t, db, order.ID, agent.ID)
	svc := newDeliveryServiceForTest(db)

	if _, err := svc.AppendNote(delivery.ID, agent.ID, "到达装货点"); err != nil {
		t.Fatalf("first AppendNote failed: %v", err)
	}
	updated, err := svc.AppendNote(delivery.ID, agent.ID, "装货完成")
	if err != nil {
		t.Fatalf("second AppendNote failed: %v", err)
	}

	lines := strings.Split(updated.Notes, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 note lines, got %d: %q", len(lines), updated.Notes)
	}
	if !strings.Contains(lines[0], "到达装货点") || !strings.Contains(lines[1], "装货完成") {
		t.Fatalf("note order broken: %q", updated.Notes)
	}
}

func TestAppendNoteRejectsEmpty(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	agent := createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusConfirmed)
	delivery := createTestDelivery(t, db, order.ID, agent.ID)
	svc := newDeliveryServiceForTest(db)

	_, err := svc.AppendNote(delivery.ID, agent.ID, "   ")
	if !errors.Is(err, ErrDeliveryActionInvalid) {
		t.Fatalf("expected action invalid, got: %v", err)
	}
}

func TestRetryUnassignedAssignsPendingOrders(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	svc := newDeliveryServiceForTest(db)

	order1 := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	order2 := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusConfirmed)
	createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusCancelled)

	assigned, err := svc.RetryUnassigned(10)
	if err != nil {
		t.Fatalf("RetryUnassigned failed: %v", err)
	}
	if assigned != 2 {
		t.Fatalf("expected 2 assignments, got %d", assigned)
	}
	for _, orderID := range []uint{order1.ID, order2.ID} {
		var count int64
		if err := db.Model(&models.Delivery{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
			t.Fatalf("count deliveries failed: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected delivery for order %d", orderID)
		}
	}
}

func TestAssignLocationFallsBackToSupplierAddress(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 100)
	createTestProfile(t, db, "agent-1", constants.RoleDelivery, true)
	svc := newDeliveryServiceForTest(db)

	if err := db.Model(fx.Engineer).Update("address", "工程师常用地址").Error; err != nil {
		t.Fatalf("set engineer address failed: %v", err)
	}
	if err := db.Model(fx.SupplierProfile).Update("address", "供应商仓库地址").Error; err != nil {
		t.Fatalf("set supplier address failed: %v", err)
	}

	// 订单未填收货地址时回退供应商档案地址
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	delivery, err := svc.Assign(order.ID)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if delivery == nil || delivery.Location != "供应商仓库地址" {
		t.Fatalf("expected supplier address fallback, got: %+v", delivery)
	}

	// 订单自带收货地址时优先使用
	located := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	if err := db.Model(located).Update("delivery_location", "工地东门").Error; err != nil {
		t.Fatalf("set order location failed: %v", err)
	}
	delivery, err = svc.Assign(located.ID)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if delivery == nil || delivery.Location != "工地东门" {
		t.Fatalf("expected explicit order location, got: %+v", delivery)
	}
}
