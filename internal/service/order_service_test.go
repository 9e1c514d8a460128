package service

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newOrderServiceForTest(db *gorm.DB) *OrderService {
	return NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewMaterialRepository(db),
		repository.NewProfileRepository(db),
		repository.NewSupplierRepository(db),
		nil,
		nil,
		nil,
	)
}

func TestPlaceOrderReservesStockAndSnapshotsPrice(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "25.50", 10)
	svc := newOrderServiceForTest(db)

	result, err := svc.PlaceOrder(PlaceOrderInput{
		EngineerID:       fx.Engineer.ID,
		MaterialID:       fx.Material.ID,
		Quantity:         4,
		DeliveryLocation: "浦东工地一号门",
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	order := result.Order
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if !strings.HasPrefix(order.OrderNo, "BH") {
		t.Fatalf("unexpected order no: %s", order.OrderNo)
	}
	if !order.UnitPrice.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("expected unit price 25.50, got %s", order.UnitPrice.String())
	}
	if !order.TotalPrice.Equal(decimal.RequireFromString("102.00")) {
		t.Fatalf("expected total 102.00, got %s", order.TotalPrice.String())
	}
	if got := materialStock(t, db, fx.Material.ID); got != 6 {
		t.Fatalf("expected stock 6 after reserve, got %d", got)
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 3)
	svc := newOrderServiceForTest(db)

	_, err := svc.PlaceOrder(PlaceOrderInput{
		EngineerID: fx.Engineer.ID,
		MaterialID: fx.Material.ID,
		Quantity:   5,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if got := materialStock(t, db, fx.Material.ID); got != 3 {
		t.Fatalf("expected stock untouched at 3, got %d", got)
	}
}

func TestPlaceOrderRejectsInactiveMaterial(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	if err := db.Model(fx.Material).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate material failed: %v", err)
	}
	svc := newOrderServiceForTest(db)

	_, err := svc.PlaceOrder(PlaceOrderInput{
		EngineerID: fx.Engineer.ID,
		MaterialID: fx.Material.ID,
		Quantity:   1,
	})
	if !errors.Is(err, ErrMaterialInactive) {
		t.Fatalf("expected material inactive, got: %v", err)
	}
}

func TestPlaceOrderRejectsNonPositiveQuantity(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	svc := newOrderServiceForTest(db)

	for _, quantity := range []int{0, -2} {
		_, err := svc.PlaceOrder(PlaceOrderInput{
			EngineerID: fx.Engineer.ID,
			MaterialID: fx.Material.ID,
			Quantity:   quantity,
		})
		if !errors.Is(err, ErrQuantityInvalid) {
			t.Fatalf("quantity %d: expected quantity invalid, got: %v", quantity, err)
		}
	}
}

func TestPlaceOrderTotalPriceFixedAfterPriceChange(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "20.00", 10)
	svc := newOrderServiceForTest(db)

	result, err := svc.PlaceOrder(PlaceOrderInput{
		EngineerID: fx.Engineer.ID,
		MaterialID: fx.Material.ID,
		Quantity:   2,
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	// 供应商调价不回溯已生成订单
	if err := db.Model(fx.Material).Update("unit_price", "99.00").Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}

	reloaded, err := svc.orderRepo.GetByID(result.Order.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if !reloaded.TotalPrice.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("expected total fixed at 40.00, got %s", reloaded.TotalPrice.String())
	}
}

func TestConfirmOrderBySupplier(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	svc := newOrderServiceForTest(db)

	confirmed, err := svc.ConfirmOrder(order.ID, fx.SupplierProfile.ID)
	if err != nil {
		t.Fatalf("ConfirmOrder failed: %v", err)
	}
	if confirmed.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}
}

func TestConfirmOrderByWrongSupplierForbidden(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	otherProfile := createTestProfile(t, db, "other-supplier", constants.RoleSupplier, true)
	createTestSupplier(t, db, otherProfile, "其他公司")
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	svc := newOrderServiceForTest(db)

	_, err := svc.ConfirmOrder(order.ID, otherProfile.ID)
	if !errors.Is(err, ErrActorForbidden) {
		t.Fatalf("expected forbidden, got: %v", err)
	}
	if got := orderStatus(t, db, order.ID); got != constants.OrderStatusPending {
		t.Fatalf("expected order still pending, got %s", got)
	}
}

func TestConfirmOrderRejectsNonPendingStatus(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusDispatched)
	svc := newOrderServiceForTest(db)

	_, err := svc.ConfirmOrder(order.ID, fx.SupplierProfile.ID)
	if !errors.Is(err, ErrOrderTransitionInvalid) {
		t.Fatalf("expected transition invalid, got: %v", err)
	}
}

func TestCancelOrderRestoresStockOnce(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 10)
	svc := newOrderServiceForTest(db)

	result, err := svc.PlaceOrder(PlaceOrderInput{
		EngineerID: fx.Engineer.ID,
		MaterialID: fx.Material.ID,
		Quantity:   4,
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if got := materialStock(t, db, fx.Material.ID); got != 6 {
		t.Fatalf("expected stock 6 after place, got %d", got)
	}

	cancelled, err := svc.CancelOrder(result.Order.ID, fx.Engineer.ID)
	if err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Fatalf("expected cancelled_at set")
	}
	if got := materialStock(t, db, fx.Material.ID); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}

	// 重复取消被拒绝，库存不会二次回补
	_, err = svc.CancelOrder(result.Order.ID, fx.Engineer.ID)
	if !errors.Is(err, ErrOrderTransitionInvalid) {
		t.Fatalf("expected transition invalid on repeat cancel, got: %v", err)
	}
	if got := materialStock(t, db, fx.Material.ID); got != 10 {
		t.Fatalf("expected stock unchanged at 10, got %d", got)
	}
}

func TestCancelOrderByOtherEngineerForbidden(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	other := createTestProfile(t, db, "other-engineer", constants.RoleEngineer, true)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusPending)
	svc := newOrderServiceForTest(db)

	_, err := svc.CancelOrder(order.ID, other.ID)
	if !errors.Is(err, ErrActorForbidden) {
		t.Fatalf("expected forbidden, got: %v", err)
	}
}

func TestCancelOrderRejectedAfterDispatch(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	order := createTestOrder(t, db, fx.Engineer.ID, fx.Supplier.ID, fx.Material, 1, constants.OrderStatusDispatched)
	svc := newOrderServiceForTest(db)

	_, err := svc.CancelOrder(order.ID, fx.Engineer.ID)
	if !errors.Is(err, ErrOrderTransitionInvalid) {
		t.Fatalf("expected transition invalid, got: %v", err)
	}
}

func TestPlaceOrderRejectsInactiveEngineer(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	if err := db.Model(fx.Engineer).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate engineer failed: %v", err)
	}
	svc := newOrderServiceForTest(db)

	_, err := svc.PlaceOrder(PlaceOrderInput{
		EngineerID: fx.Engineer.ID,
		MaterialID: fx.Material.ID,
		Quantity:   1,
	})
	if !errors.Is(err, ErrProfileInactive) {
		t.Fatalf("expected profile inactive, got: %v", err)
	}
}

func TestGenerateOrderNo(t *testing.T) {
	orderNo := generateOrderNo()
	if !strings.HasPrefix(orderNo, "BH") {
		t.Fatalf("expected BH prefix, got: %s", orderNo)
	}
	if len(orderNo) != 2+14+6 {
		t.Fatalf("unexpected order no length: %s", orderNo)
	}
}

func TestPlaceOrderConcurrentNeverOversells(t *testing.T) {
	db := newServiceTestDB(t)
	fx := setupMarketplace(t, db, "10.00", 5)
	svc := newOrderServiceForTest(db)

	// 单连接串行化内存库写入，让并发下单只受守卫更新约束
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(PlaceOrderInput{
				EngineerID: fx.Engineer.ID,
				MaterialID: fx.Material.ID,
				Quantity:   1,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	placed, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			placed++
		case errors.Is(err, ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected place error: %v", err)
		}
	}
	if placed != 5 || rejected != 3 {
		t.Fatalf("expected 5 placed and 3 rejected, got %d placed %d rejected", placed, rejected)
	}
	if got := materialStock(t, db, fx.Material.ID); got != 0 {
		t.Fatalf("expected stock drained to 0, got %d", got)
	}
}
