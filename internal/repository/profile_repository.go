package repository

import (
	"errors"

	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository 档案数据访问接口
type ProfileRepository interface {
	Create(profile *models.Profile) error
	GetByID(id uint) (*models.Profile, error)
	GetByUsername(username string) (*models.Profile, error)
	List(filter ProfileListFilter) ([]models.Profile, int64, error)
	ListActiveAgents() ([]models.Profile, error)
	Update(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) ProfileRepository
}

// GormProfileRepository GORM 实现
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建档案仓库
func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProfileRepository) WithTx(tx *gorm.DB) ProfileRepository {
	if tx == nil {
		return r
	}
	return &GormProfileRepository{db: tx}
}

// Create 创建档案
func (r *GormProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

// GetByID 根据 ID 获取档案
func (r *GormProfileRepository) GetByID(id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByUsername 根据用户名获取档案
func (r *GormProfileRepository) GetByUsername(username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Where("username = ?", username).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// List 档案列表
func (r *GormProfileRepository) List(filter ProfileListFilter) ([]models.Profile, int64, error) {
	var profiles []models.Profile
	query := r.db.Model(&models.Profile{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id asc").Find(&profiles).Error; err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// ListActiveAgents 获取所有可用配送员（按 ID 升序，保证分配决策可复现）
func (r *GormProfileRepository) ListActiveAgents() ([]models.Profile, error) {
	var agents []models.Profile
	if err := r.db.
		Where("role = ? AND is_active = ?", constants.RoleDelivery, true).
		Order("id asc").
		Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

// Update 更新档案字段
func (r *GormProfileRepository) Update(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return errors.New("invalid profile update params")
	}
	return r.db.Model(&models.Profile{}).Where("id = ?", id).Updates(updates).Error
}
