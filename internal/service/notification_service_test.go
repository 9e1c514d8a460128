package service

import (
	"errors"
	"testing"

	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/models"
	"github.com/buildhub-next/internal/queue"
	"github.com/buildhub-next/internal/repository"

	"gorm.io/gorm"
)

func newNotificationServiceForTest(db *gorm.DB) *NotificationService {
	return NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewOrderRepository(db),
		repository.NewProfileRepository(db),
		nil,
		nil,
	)
}

func TestNotifyOrderEventRejectsUnknownEvent(t *testing.T) {
	db := newServiceTestDB(t)
	svc := newNotificationServiceForTest(db)

	err := svc.NotifyOrderEvent(1, "exploded")
	if !errors.Is(err, ErrNotificationEventInvalid) {
		t.Fatalf("expected event invalid, got: %v", err)
	}
}

func TestDispatchPlacedNotifiesEngineerAndSupplier(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 2, constants.OrderStatusPending)
	svc := newNotificationServiceForTest(db)

	if err := svc.Dispatch(queue.OrderNotificationPayload{OrderID: order.ID, Event: constants.OrderEventPlaced}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	var notifications []models.Notification
	if err := db.Order("id asc").Find(&notifications).Error; err != nil {
		t.Fatalf("load notifications failed: %v", err)
	}
	if len(notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifications))
	}
	recipients := map[uint]bool{}
	for _, n := range notifications {
		recipients[n.RecipientID] = true
		if n.Link == "" {
			t.Fatalf("expected notification link set")
		}
	}
	if !recipients[fx.Engineer.ID] || !recipients[fx.SupplierProfile.ID] {
		t.Fatalf("unexpected recipients: %+v", recipients)
	}
}

func TestDispatchConfirmedNotifiesEngineerOnly(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusConfirmed)
	svc := newNotificationServiceForTest(db)

	if err := svc.Dispatch(queue.OrderNotificationPayload{OrderID: order.ID, Event: constants.OrderEventConfirmed}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	var notifications []models.Notification
	if err := db.Find(&notifications).Error; err != nil {
		t.Fatalf("load notifications failed: %v", err)
	}
	if len(notifications) != 1 || notifications[0].RecipientID != fx.Engineer.ID {
		t.Fatalf("expected single engineer notification, got: %+v", notifications)
	}
}

func TestDispatchSwallowsMissingOrder(t *testing.T) {
	db := newServiceTestDB(t)
	svc := newNotificationServiceForTest(db)

	if err := svc.Dispatch(queue.OrderNotificationPayload{OrderID: 9999, Event: constants.OrderEventPlaced}); err != nil {
		t.Fatalf("expected nil for missing order, got: %v", err)
	}

	var count int64
	if err := db.Model(&models.Notification{}).Count(&count).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no notifications, got %d", count)
	}
}

func TestMarkNotificationReadOnlyByRecipient(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	other := createTestProfile(t, db, "bystander", constants.RoleEngineer, true)
	notification := &models.Notification{
		RecipientID: fx.Engineer.ID,
		Message:     "订单已创建",
	}
	if err := db.Create(notification).Error; err != nil {
		t.Fatalf("create notification failed: %v", err)
	}
	svc := newNotificationServiceForTest(db)

	if err := svc.MarkNotificationRead(notification.ID, other.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected not found for non-recipient, got: %v", err)
	}

	if err := svc.MarkNotificationRead(notification.ID, fx.Engineer.ID); err != nil {
		t.Fatalf("MarkNotificationRead failed: %v", err)
	}
	var reloaded models.Notification
	if err := db.First(&reloaded, notification.ID).Error; err != nil {
		t.Fatalf("reload notification failed: %v", err)
	}
	if !reloaded.IsRead {
		t.Fatalf("expected notification marked read")
	}
}

func TestListNotificationsScopedToActor(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	other := createTestProfile(t, db, "bystander", constants.RoleEngineer, true)
	for _, recipientID := range []uint{fx.Engineer.ID, fx.Engineer.ID, other.ID} {
		if err := db.Create(&models.Notification{RecipientID: recipientID, Message: "test"}).Error; err != nil {
			t.Fatalf("create notification failed: %v", err)
		}
	}
	svc := newNotificationServiceForTest(db)

	// 过滤条件里的收件人会被强制收敛为操作者本人
	_, total, err := svc.ListNotifications(fx.Engineer.ID, repository.NotificationListFilter{RecipientID: other.ID})
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 notifications for engineer, got %d", total)
	}
}

func TestListEmailFailuresAdminOnly(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	admin := createTestProfile(t, db, "admin", constants.RoleAdmin, true)
	if err := db.Create(&models.EmailFailure{
		OrderID:        1,
		Event:          constants.OrderEventPlaced,
		RecipientEmail: "someone@test.local",
		Subject:        "订单已创建",
		LastError:      "dial tcp: connection refused",
	}).Error; err != nil {
		t.Fatalf("create email failure failed: %v", err)
	}
	svc := newNotificationServiceForTest(db)

	if _, err := svc.ListEmailFailures(fx.Engineer.ID, 10); !errors.Is(err, ErrActorForbidden) {
		t.Fatalf("expected forbidden for engineer, got: %v", err)
	}

	failures, err := svc.ListEmailFailures(admin.ID, 10)
	if err != nil {
		t.Fatalf("ListEmailFailures failed: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
}

func TestIsKnownOrderEvent(t *testing.T) {
	for _, event := range []string{
		constants.OrderEventPlaced,
		constants.OrderEventConfirmed,
		constants.OrderEventDispatched,
		constants.OrderEventDelivered,
		constants.OrderEventCancelled,
	} {
		if !isKnownOrderEvent(event) {
			t.Fatalf("expected %s to be known", event)
		}
	}
	if isKnownOrderEvent("refunded") {
		t.Fatalf("expected refunded to be unknown")
	}
}
