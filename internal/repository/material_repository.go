package repository

import (
	"errors"

	"github.com/buildhub-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaterialRepository 建材数据访问接口
type MaterialRepository interface {
	Create(material *models.Material) error
	GetByID(id uint) (*models.Material, error)
	LockByID(id uint) (*models.Material, error)
	List(filter MaterialListFilter) ([]models.Material, int64, error)
	Update(id uint, updates map[string]interface{}) error
	Delete(id uint) error
	CountOrders(materialID uint) (int64, error)
	ReserveStock(materialID uint, quantity int) (int64, error)
	ReleaseStock(materialID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) MaterialRepository
}

// GormMaterialRepository GORM 实现
type GormMaterialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository 创建建材仓库
func NewMaterialRepository(db *gorm.DB) *GormMaterialRepository {
	return &GormMaterialRepository{db: db}
}

// WithTx 绑定事务
func (r *GormMaterialRepository) WithTx(tx *gorm.DB) MaterialRepository {
	if tx == nil {
		return r
	}
	return &GormMaterialRepository{db: tx}
}

// Create 创建建材
func (r *GormMaterialRepository) Create(material *models.Material) error {
	return r.db.Create(material).Error
}

// GetByID 根据 ID 获取建材
func (r *GormMaterialRepository) GetByID(id uint) (*models.Material, error) {
	var material models.Material
	if err := r.db.Preload("Supplier").First(&material, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &material, nil
}

// LockByID 行锁读取建材（必须在事务内调用）
func (r *GormMaterialRepository) LockByID(id uint) (*models.Material, error) {
	var material models.Material
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&material, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &material, nil
}

// List 建材列表
func (r *GormMaterialRepository) List(filter MaterialListFilter) ([]models.Material, int64, error) {
	var materials []models.Material
	query := r.db.Model(&models.Material{})

	if filter.SupplierID != 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Supplier").Order("id desc").Find(&materials).Error; err != nil {
		return nil, 0, err
	}
	return materials, total, nil
}

// Update 更新建材字段
func (r *GormMaterialRepository) Update(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return errors.New("invalid material update params")
	}
	return r.db.Model(&models.Material{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 软删除建材
func (r *GormMaterialRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid material id")
	}
	return r.db.Delete(&models.Material{}, id).Error
}

// CountOrders 统计引用该建材的订单数
func (r *GormMaterialRepository) CountOrders(materialID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Where("material_id = ?", materialID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReserveStock 预占库存（带守卫的单条 UPDATE，库存不足或已下架时影响 0 行）
func (r *GormMaterialRepository) ReserveStock(materialID uint, quantity int) (int64, error) {
	if materialID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock reserve params")
	}
	result := r.db.Model(&models.Material{}).
		Where("id = ? AND is_active = ? AND stock_level >= ?", materialID, true, quantity).
		Update("stock_level", gorm.Expr("stock_level - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseStock 回补库存（订单取消时调用，与取消同一事务）
func (r *GormMaterialRepository) ReleaseStock(materialID uint, quantity int) (int64, error) {
	if materialID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock release params")
	}
	result := r.db.Model(&models.Material{}).
		Where("id = ?", materialID).
		Update("stock_level", gorm.Expr("stock_level + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
