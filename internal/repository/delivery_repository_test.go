package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/models"

	"gorm.io/gorm"
)

func seedOrderWithStatus(t *testing.T, db *gorm.DB, status string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:    fmt.Sprintf("BHTEST%d", time.Now().UnixNano()),
		EngineerID: 1,
		SupplierID: 1,
		MaterialID: 1,
		Quantity:   1,
		Status:     status,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func seedDelivery(t *testing.T, db *gorm.DB, orderID, agentID uint) *models.Delivery {
	t.Helper()
	delivery := &models.Delivery{OrderID: orderID, AgentID: &agentID}
	if err := db.Create(delivery).Error; err != nil {
		t.Fatalf("create delivery failed: %v", err)
	}
	return delivery
}

func TestActiveLoadByAgentExcludesSettledOrders(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewDeliveryRepository(db)

	// agent 1：两单在途 + 一单已送达；agent 2：一单在途 + 一单已取消
	seedDelivery(t, db, seedOrderWithStatus(t, db, constants.OrderStatusConfirmed).ID, 1)
	seedDelivery(t, db, seedOrderWithStatus(t, db, constants.OrderStatusDispatched).ID, 1)
	seedDelivery(t, db, seedOrderWithStatus(t, db, constants.OrderStatusDelivered).ID, 1)
	seedDelivery(t, db, seedOrderWithStatus(t, db, constants.OrderStatusPending).ID, 2)
	seedDelivery(t, db, seedOrderWithStatus(t, db, constants.OrderStatusCancelled).ID, 2)

	loads, err := repo.ActiveLoadByAgent()
	if err != nil {
		t.Fatalf("ActiveLoadByAgent failed: %v", err)
	}
	if loads[1] != 2 {
		t.Fatalf("expected agent 1 load 2, got %d", loads[1])
	}
	if loads[2] != 1 {
		t.Fatalf("expected agent 2 load 1, got %d", loads[2])
	}
}

func TestGetByOrderIDMissingReturnsNil(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewDeliveryRepository(db)

	delivery, err := repo.GetByOrderID(42)
	if err != nil {
		t.Fatalf("GetByOrderID failed: %v", err)
	}
	if delivery != nil {
		t.Fatalf("expected nil, got: %+v", delivery)
	}
}

func TestDeliveryListStateFilters(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewDeliveryRepository(db)
	now := time.Now()

	pending := seedDelivery(t, db, seedOrderWithStatus(t, db, constants.OrderStatusConfirmed).ID, 1)
	_ = pending

	inTransit := seedDelivery(t, db, seedOrderWithStatus(t, db, constants.OrderStatusDispatched).ID, 1)
	if err := db.Model(inTransit).Update("dispatched_at", &now).Error; err != nil {
		t.Fatalf("mark dispatched failed: %v", err)
	}

	completed := seedDelivery(t, db, seedOrderWithStatus(t, db, constants.OrderStatusDelivered).ID, 1)
	if err := db.Model(completed).Updates(map[string]interface{}{
		"dispatched_at": &now,
		"delivered_at":  &now,
	}).Error; err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}

	cases := []struct {
		filter DeliveryListFilter
		want   int64
	}{
		{DeliveryListFilter{OnlyPending: true}, 1},
		{DeliveryListFilter{OnlyInTransit: true}, 1},
		{DeliveryListFilter{OnlyCompleted: true}, 1},
		{DeliveryListFilter{}, 3},
	}
	for i, c := range cases {
		_, total, err := repo.List(c.filter)
		if err != nil {
			t.Fatalf("case %d: List failed: %v", i, err)
		}
		if total != c.want {
			t.Fatalf("case %d: expected %d, got %d", i, c.want, total)
		}
	}
}
