package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/buildhub-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func seedMaterial(t *testing.T, db *gorm.DB, stock int, active bool) *models.Material {
	t.Helper()
	material := &models.Material{
		SupplierID: 1,
		Name:       "测试水泥",
		UnitPrice:  models.NewMoneyFromDecimal(decimal.RequireFromString("28.50")),
		StockLevel: stock,
		IsActive:   active,
	}
	if err := db.Create(material).Error; err != nil {
		t.Fatalf("create material failed: %v", err)
	}
	return material
}

func TestReserveStockGuardsAgainstOversell(t *testing.T) {
	db := newRepoTestDB(t)
	material := seedMaterial(t, db, 5, true)
	repo := NewMaterialRepository(db)

	affected, err := repo.ReserveStock(material.ID, 3)
	if err != nil {
		t.Fatalf("ReserveStock failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}

	// 剩 2，再要 3 必须落空且库存不动
	affected, err = repo.ReserveStock(material.ID, 3)
	if err != nil {
		t.Fatalf("ReserveStock failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected guard to reject oversell, affected %d", affected)
	}

	var reloaded models.Material
	if err := db.First(&reloaded, material.ID).Error; err != nil {
		t.Fatalf("reload material failed: %v", err)
	}
	if reloaded.StockLevel != 2 {
		t.Fatalf("expected stock 2, got %d", reloaded.StockLevel)
	}
}

func TestReserveStockSkipsInactiveMaterial(t *testing.T) {
	db := newRepoTestDB(t)
	material := seedMaterial(t, db, 10, false)
	repo := NewMaterialRepository(db)

	affected, err := repo.ReserveStock(material.ID, 1)
	if err != nil {
		t.Fatalf("ReserveStock failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected inactive material untouched, affected %d", affected)
	}
}

func TestReserveStockRejectsInvalidParams(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewMaterialRepository(db)

	if _, err := repo.ReserveStock(0, 1); err == nil {
		t.Fatalf("expected error for zero material id")
	}
	if _, err := repo.ReserveStock(1, 0); err == nil {
		t.Fatalf("expected error for non-positive quantity")
	}
}

func TestReleaseStockIncrements(t *testing.T) {
	db := newRepoTestDB(t)
	material := seedMaterial(t, db, 2, true)
	repo := NewMaterialRepository(db)

	affected, err := repo.ReleaseStock(material.ID, 4)
	if err != nil {
		t.Fatalf("ReleaseStock failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}

	var reloaded models.Material
	if err := db.First(&reloaded, material.ID).Error; err != nil {
		t.Fatalf("reload material failed: %v", err)
	}
	if reloaded.StockLevel != 6 {
		t.Fatalf("expected stock 6, got %d", reloaded.StockLevel)
	}
}

func TestCreatePersistsInactiveFlag(t *testing.T) {
	db := newRepoTestDB(t)

	material := seedMaterial(t, db, 10, false)
	var reloadedMaterial models.Material
	if err := db.First(&reloadedMaterial, material.ID).Error; err != nil {
		t.Fatalf("reload material failed: %v", err)
	}
	if reloadedMaterial.IsActive {
		t.Fatalf("expected material persisted as inactive")
	}

	agent := &models.Profile{Username: "agent-offline", Role: "delivery", IsActive: false}
	if err := db.Create(agent).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	var reloadedAgent models.Profile
	if err := db.First(&reloadedAgent, agent.ID).Error; err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if reloadedAgent.IsActive {
		t.Fatalf("expected profile persisted as inactive")
	}
}
