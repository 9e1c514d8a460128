package models

import (
	"time"
)

// Notification 站内通知表
type Notification struct {
	ID          uint      `gorm:"primarykey" json:"id"`                  // 主键
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`    // 收件人档案ID
	Message     string    `gorm:"type:text;not null" json:"message"`     // 通知内容
	Link        string    `gorm:"default:''" json:"link"`                // 跳转链接
	IsRead      bool      `gorm:"default:false;index" json:"is_read"`    // 是否已读
	CreatedAt   time.Time `gorm:"index" json:"created_at"`               // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

// EmailFailure 邮件发送失败记录表（持久化留待重试/排查）
type EmailFailure struct {
	ID             uint      `gorm:"primarykey" json:"id"`                     // 主键
	OrderID        uint      `gorm:"index" json:"order_id"`                    // 关联订单ID
	Event          string    `gorm:"type:varchar(20);index" json:"event"`      // 订单事件
	RecipientEmail string    `gorm:"not null" json:"recipient_email"`          // 收件邮箱
	Subject        string    `gorm:"not null" json:"subject"`                  // 邮件主题
	Body           string    `gorm:"type:text" json:"body"`                    // 邮件正文
	Attempts       int       `gorm:"not null;default:1" json:"attempts"`       // 已尝试次数
	LastError      string    `gorm:"type:text" json:"last_error"`              // 最近一次错误
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                               // 更新时间
}

// TableName 指定表名
func (EmailFailure) TableName() string {
	return "email_failures"
}
