package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile 平台参与者档案表（工程师/供应商/配送员/管理员）
type Profile struct {
	ID        uint           `gorm:"primarykey" json:"id"`                        // 主键
	Username  string         `gorm:"uniqueIndex;not null" json:"username"`        // 用户名
	Email     string         `gorm:"index" json:"email"`                          // 邮箱
	Role      string         `gorm:"type:varchar(20);not null;index" json:"role"` // 角色（engineer/supplier/delivery/admin）
	Phone     string         `gorm:"default:''" json:"phone"`                     // 联系电话
	Address   string         `gorm:"default:''" json:"address"`                   // 默认地址
	IsActive  bool           `gorm:"index" json:"is_active"`                      // 是否启用（创建方显式赋值，避免零值被默认值吞掉）
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                  // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}
