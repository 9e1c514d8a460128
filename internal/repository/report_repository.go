package repository

import (
	"time"

	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/models"

	"gorm.io/gorm"
)

// ReportRepository 报表聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type ReportRepository interface {
	GetEngineerOverview(engineerID uint, startAt, endAt time.Time) (EngineerOverviewRow, error)
	GetTopSuppliersByEngineer(engineerID uint, startAt, endAt time.Time, limit int) ([]SupplierRankingRow, error)
	GetSupplierOverview(supplierID uint, startAt, endAt time.Time) (SupplierOverviewRow, error)
	GetTopMaterialsBySupplier(supplierID uint, startAt, endAt time.Time, limit int) ([]MaterialRankingRow, error)
	GetAgentOverview(agentID uint, startAt, endAt time.Time) (AgentOverviewRow, error)
}

// EngineerOverviewRow 工程师报表总览原始统计结果
type EngineerOverviewRow struct {
	OrdersTotal     int64
	PendingOrders   int64
	ConfirmedOrders int64
	InTransitOrders int64
	DeliveredOrders int64
	CancelledOrders int64
	TotalSpend      float64
}

// SupplierOverviewRow 供应商报表总览原始统计结果
type SupplierOverviewRow struct {
	OrdersTotal     int64
	PendingOrders   int64
	DeliveredOrders int64
	CancelledOrders int64
	Revenue         float64
	ActiveMaterials int64
}

// AgentOverviewRow 配送员报表总览原始统计结果
type AgentOverviewRow struct {
	Assigned  int64
	InTransit int64
	Completed int64
}

// SupplierRankingRow 供应商排行原始行
type SupplierRankingRow struct {
	SupplierID  uint
	CompanyName string
	OrdersTotal int64
	TotalSpend  float64
}

// MaterialRankingRow 建材排行原始行
type MaterialRankingRow struct {
	MaterialID  uint
	Name        string
	OrdersTotal int64
	Quantity    int64
	Revenue     float64
}

// GormReportRepository GORM 报表聚合实现
type GormReportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建报表仓库
func NewReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

func settledOrderStatuses() []string {
	return []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusDispatched,
		constants.OrderStatusDelivered,
	}
}

func (r *GormReportRepository) orderBase(startAt, endAt time.Time) *gorm.DB {
	return r.db.Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt)
}

// GetEngineerOverview 获取工程师总览统计
func (r *GormReportRepository) GetEngineerOverview(engineerID uint, startAt, endAt time.Time) (EngineerOverviewRow, error) {
	result := EngineerOverviewRow{}

	base := func() *gorm.DB {
		return r.orderBase(startAt, endAt).Where("engineer_id = ?", engineerID)
	}

	if err := base().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := base().Where("status = ?", constants.OrderStatusPending).Count(&result.PendingOrders).Error; err != nil {
		return result, err
	}
	if err := base().Where("status = ?", constants.OrderStatusConfirmed).Count(&result.ConfirmedOrders).Error; err != nil {
		return result, err
	}
	if err := base().Where("status = ?", constants.OrderStatusDispatched).Count(&result.InTransitOrders).Error; err != nil {
		return result, err
	}
	if err := base().Where("status = ?", constants.OrderStatusDelivered).Count(&result.DeliveredOrders).Error; err != nil {
		return result, err
	}
	if err := base().Where("status = ?", constants.OrderStatusCancelled).Count(&result.CancelledOrders).Error; err != nil {
		return result, err
	}

	var spend struct{ Total float64 }
	if err := base().
		Where("status IN ?", settledOrderStatuses()).
		Select("COALESCE(SUM(total_price), 0) AS total").
		Scan(&spend).Error; err != nil {
		return result, err
	}
	result.TotalSpend = spend.Total
	return result, nil
}

// GetTopSuppliersByEngineer 获取工程师采购金额最高的供应商排行
func (r *GormReportRepository) GetTopSuppliersByEngineer(engineerID uint, startAt, endAt time.Time, limit int) ([]SupplierRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []SupplierRankingRow
	if err := r.orderBase(startAt, endAt).
		Select("orders.supplier_id AS supplier_id, supplier_profiles.company_name AS company_name, COUNT(*) AS orders_total, COALESCE(SUM(orders.total_price), 0) AS total_spend").
		Joins("JOIN supplier_profiles ON supplier_profiles.id = orders.supplier_id").
		Where("orders.engineer_id = ? AND orders.status IN ?", engineerID, settledOrderStatuses()).
		Group("orders.supplier_id, supplier_profiles.company_name").
		Order("total_spend DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetSupplierOverview 获取供应商总览统计
func (r *GormReportRepository) GetSupplierOverview(supplierID uint, startAt, endAt time.Time) (SupplierOverviewRow, error) {
	result := SupplierOverviewRow{}

	base := func() *gorm.DB {
		return r.orderBase(startAt, endAt).Where("supplier_id = ?", supplierID)
	}

	if err := base().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := base().Where("status = ?", constants.OrderStatusPending).Count(&result.PendingOrders).Error; err != nil {
		return result, err
	}
	if err := base().Where("status = ?", constants.OrderStatusDelivered).Count(&result.DeliveredOrders).Error; err != nil {
		return result, err
	}
	if err := base().Where("status = ?", constants.OrderStatusCancelled).Count(&result.CancelledOrders).Error; err != nil {
		return result, err
	}

	var revenue struct{ Total float64 }
	if err := base().
		Where("status IN ?", settledOrderStatuses()).
		Select("COALESCE(SUM(total_price), 0) AS total").
		Scan(&revenue).Error; err != nil {
		return result, err
	}
	result.Revenue = revenue.Total

	if err := r.db.Model(&models.Material{}).
		Where("supplier_id = ? AND is_active = ?", supplierID, true).
		Count(&result.ActiveMaterials).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetTopMaterialsBySupplier 获取供应商销量最高的建材排行
func (r *GormReportRepository) GetTopMaterialsBySupplier(supplierID uint, startAt, endAt time.Time, limit int) ([]MaterialRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []MaterialRankingRow
	if err := r.orderBase(startAt, endAt).
		Select("orders.material_id AS material_id, materials.name AS name, COUNT(*) AS orders_total, COALESCE(SUM(orders.quantity), 0) AS quantity, COALESCE(SUM(orders.total_price), 0) AS revenue").
		Joins("JOIN materials ON materials.id = orders.material_id").
		Where("orders.supplier_id = ? AND orders.status IN ?", supplierID, settledOrderStatuses()).
		Group("orders.material_id, materials.name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetAgentOverview 获取配送员总览统计
func (r *GormReportRepository) GetAgentOverview(agentID uint, startAt, endAt time.Time) (AgentOverviewRow, error) {
	result := AgentOverviewRow{}

	base := func() *gorm.DB {
		return r.db.Model(&models.Delivery{}).
			Where("agent_id = ? AND created_at >= ? AND created_at < ?", agentID, startAt, endAt)
	}

	if err := base().Count(&result.Assigned).Error; err != nil {
		return result, err
	}
	if err := base().Where("dispatched_at IS NOT NULL AND delivered_at IS NULL").Count(&result.InTransit).Error; err != nil {
		return result, err
	}
	if err := base().Where("delivered_at IS NOT NULL").Count(&result.Completed).Error; err != nil {
		return result, err
	}
	return result, nil
}
