package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// newServiceTestDB 打开独立的内存库并临时接管全局 DB（事务路径依赖 models.DB）
func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.SupplierProfile{},
		&models.Material{},
		&models.Order{},
		&models.Delivery{},
		&models.Notification{},
		&models.EmailFailure{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	prev := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = prev })
	return db
}

func createTestProfile(t *testing.T, db *gorm.DB, username, role string, active bool) *models.Profile {
	t.Helper()
	profile := &models.Profile{
		Username: username,
		Email:    username + "@test.local",
		Role:     role,
		IsActive: active,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create profile %s failed: %v", username, err)
	}
	return profile
}

func createTestSupplier(t *testing.T, db *gorm.DB, profile *models.Profile, company string) *models.SupplierProfile {
	t.Helper()
	supplier := &models.SupplierProfile{
		ProfileID:   profile.ID,
		CompanyName: company,
	}
	if err := db.Create(supplier).Error; err != nil {
		t.Fatalf("create supplier %s failed: %v", company, err)
	}
	return supplier
}

func createTestMaterial(t *testing.T, db *gorm.DB, supplierID uint, name, price string, stock int) *models.Material {
	t.Helper()
	material := &models.Material{
		SupplierID: supplierID,
		Name:       name,
		Category:   "cement",
		UnitPrice:  models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		StockLevel: stock,
		IsActive:   true,
	}
	if err := db.Create(material).Error; err != nil {
		t.Fatalf("create material %s failed: %v", name, err)
	}
	return material
}

func createTestOrder(t *testing.T, db *gorm.DB, engineerID, supplierID uint, material *models.Material, quantity int, status string) *models.Order {
	t.Helper()
	total := material.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	order := &models.Order{
		OrderNo:    fmt.Sprintf("BHTEST%d", time.Now().UnixNano()),
		EngineerID: engineerID,
		SupplierID: supplierID,
		MaterialID: material.ID,
		Quantity:   quantity,
		UnitPrice:  material.UnitPrice,
		TotalPrice: models.NewMoneyFromDecimal(total),
		Status:     status,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func materialStock(t *testing.T, db *gorm.DB, materialID uint) int {
	t.Helper()
	var material models.Material
	if err := db.First(&material, materialID).Error; err != nil {
		t.Fatalf("load material failed: %v", err)
	}
	return material.StockLevel
}

func orderStatus(t *testing.T, db *gorm.DB, orderID uint) string {
	t.Helper()
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	return order.Status
}

// marketplaceFixture 常用的一组参与者与建材
type marketplaceFixture struct {
	Engineer        *models.Profile
	SupplierProfile *models.Profile
	Supplier        *models.SupplierProfile
	Material        *models.Material
}

func setupMarketplace(t *testing.T, db *gorm.DB, price string, stock int) marketplaceFixture {
	t.Helper()
	engineer := createTestProfile(t, db, "engineer", constants.RoleEngineer, true)
	supplierProfile := createTestProfile(t, db, "supplier", constants.RoleSupplier, true)
	supplier := createTestSupplier(t, db, supplierProfile, "测试建材公司")
	material := createTestMaterial(t, db, supplier.ID, "P.O 42.5 水泥", price, stock)
	return marketplaceFixture{
		Engineer:        engineer,
		SupplierProfile: supplierProfile,
		Supplier:        supplier,
		Material:        material,
	}
}
