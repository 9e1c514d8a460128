package repository

import (
	"errors"

	"github.com/buildhub-next/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 站内通知与邮件失败记录数据访问接口
type NotificationRepository interface {
	Create(notification *models.Notification) error
	List(filter NotificationListFilter) ([]models.Notification, int64, error)
	MarkRead(id uint, recipientID uint) (int64, error)
	CreateEmailFailure(failure *models.EmailFailure) error
	ListEmailFailures(limit int) ([]models.EmailFailure, error)
	WithTx(tx *gorm.DB) NotificationRepository
}

// GormNotificationRepository GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormNotificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	if tx == nil {
		return r
	}
	return &GormNotificationRepository{db: tx}
}

// Create 创建站内通知
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// List 站内通知列表
func (r *GormNotificationRepository) List(filter NotificationListFilter) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	query := r.db.Model(&models.Notification{})

	if filter.RecipientID != 0 {
		query = query.Where("recipient_id = ?", filter.RecipientID)
	}
	if filter.OnlyUnread {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// MarkRead 标记通知已读（带收件人校验）
func (r *GormNotificationRepository) MarkRead(id uint, recipientID uint) (int64, error) {
	if id == 0 || recipientID == 0 {
		return 0, errors.New("invalid notification mark params")
	}
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreateEmailFailure 持久化邮件发送失败记录
func (r *GormNotificationRepository) CreateEmailFailure(failure *models.EmailFailure) error {
	return r.db.Create(failure).Error
}

// ListEmailFailures 获取最近的邮件失败记录
func (r *GormNotificationRepository) ListEmailFailures(limit int) ([]models.EmailFailure, error) {
	var failures []models.EmailFailure
	query := r.db.Model(&models.EmailFailure{}).Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&failures).Error; err != nil {
		return nil, err
	}
	return failures, nil
}
