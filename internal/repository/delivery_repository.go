package repository

import (
	"errors"

	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AgentLoadRow 配送员在途负载统计行
type AgentLoadRow struct {
	AgentID uint
	Active  int64
}

// DeliveryRepository 配送单数据访问接口
type DeliveryRepository interface {
	Create(delivery *models.Delivery) error
	GetByID(id uint) (*models.Delivery, error)
	LockByID(id uint) (*models.Delivery, error)
	GetByOrderID(orderID uint) (*models.Delivery, error)
	List(filter DeliveryListFilter) ([]models.Delivery, int64, error)
	Update(id uint, updates map[string]interface{}) error
	ActiveLoadByAgent() (map[uint]int64, error)
	WithTx(tx *gorm.DB) DeliveryRepository
}

// GormDeliveryRepository GORM 实现
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository 创建配送单仓库
func NewDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDeliveryRepository) WithTx(tx *gorm.DB) DeliveryRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryRepository{db: tx}
}

// Create 创建配送单
func (r *GormDeliveryRepository) Create(delivery *models.Delivery) error {
	return r.db.Create(delivery).Error
}

// GetByID 根据 ID 获取配送单
func (r *GormDeliveryRepository) GetByID(id uint) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := r.db.Preload("Agent").Preload("Order").First(&delivery, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &delivery, nil
}

// LockByID 行锁读取配送单（必须在事务内调用）
func (r *GormDeliveryRepository) LockByID(id uint) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&delivery, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &delivery, nil
}

// GetByOrderID 根据订单 ID 获取配送单
func (r *GormDeliveryRepository) GetByOrderID(orderID uint) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := r.db.Preload("Agent").Where("order_id = ?", orderID).First(&delivery).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &delivery, nil
}

// List 配送单列表
func (r *GormDeliveryRepository) List(filter DeliveryListFilter) ([]models.Delivery, int64, error) {
	var deliveries []models.Delivery
	query := r.db.Model(&models.Delivery{})

	if filter.AgentID != 0 {
		query = query.Where("agent_id = ?", filter.AgentID)
	}
	switch {
	case filter.OnlyPending:
		query = query.Where("dispatched_at IS NULL AND delivered_at IS NULL")
	case filter.OnlyInTransit:
		query = query.Where("dispatched_at IS NOT NULL AND delivered_at IS NULL")
	case filter.OnlyCompleted:
		query = query.Where("delivered_at IS NOT NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Agent").Preload("Order").Preload("Order.Material").
		Order("id desc").Find(&deliveries).Error; err != nil {
		return nil, 0, err
	}
	return deliveries, total, nil
}

// Update 更新配送单字段
func (r *GormDeliveryRepository) Update(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return errors.New("invalid delivery update params")
	}
	return r.db.Model(&models.Delivery{}).Where("id = ?", id).Updates(updates).Error
}

// ActiveLoadByAgent 统计每个配送员的在途配送数（订单未送达且未取消）
func (r *GormDeliveryRepository) ActiveLoadByAgent() (map[uint]int64, error) {
	var rows []AgentLoadRow
	if err := r.db.Model(&models.Delivery{}).
		Select("deliveries.agent_id AS agent_id, COUNT(*) AS active").
		Joins("JOIN orders ON orders.id = deliveries.order_id").
		Where("deliveries.agent_id IS NOT NULL").
		Where("orders.status NOT IN ?", []string{constants.OrderStatusDelivered, constants.OrderStatusCancelled}).
		Group("deliveries.agent_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	loads := make(map[uint]int64, len(rows))
	for _, row := range rows {
		loads[row.AgentID] = row.Active
	}
	return loads, nil
}
