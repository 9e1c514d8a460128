package repository

import (
	"errors"

	"github.com/buildhub-next/internal/models"

	"gorm.io/gorm"
)

// SupplierRepository 供应商档案数据访问接口
type SupplierRepository interface {
	Create(supplier *models.SupplierProfile) error
	GetByID(id uint) (*models.SupplierProfile, error)
	GetByProfileID(profileID uint) (*models.SupplierProfile, error)
	Update(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) SupplierRepository
}

// GormSupplierRepository GORM 实现
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository 创建供应商仓库
func NewSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSupplierRepository) WithTx(tx *gorm.DB) SupplierRepository {
	if tx == nil {
		return r
	}
	return &GormSupplierRepository{db: tx}
}

// Create 创建供应商档案
func (r *GormSupplierRepository) Create(supplier *models.SupplierProfile) error {
	return r.db.Create(supplier).Error
}

// GetByID 根据 ID 获取供应商档案
func (r *GormSupplierRepository) GetByID(id uint) (*models.SupplierProfile, error) {
	var supplier models.SupplierProfile
	if err := r.db.Preload("Profile").First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &supplier, nil
}

// GetByProfileID 根据档案 ID 获取供应商档案
func (r *GormSupplierRepository) GetByProfileID(profileID uint) (*models.SupplierProfile, error) {
	var supplier models.SupplierProfile
	if err := r.db.Where("profile_id = ?", profileID).First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &supplier, nil
}

// Update 更新供应商档案字段
func (r *GormSupplierRepository) Update(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return errors.New("invalid supplier update params")
	}
	return r.db.Model(&models.SupplierProfile{}).Where("id = ?", id).Updates(updates).Error
}
