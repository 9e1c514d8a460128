package models

import (
	"time"

	"gorm.io/gorm"
)

// SupplierProfile 供应商扩展档案表（与 Profile 一对一）
type SupplierProfile struct {
	ID          uint           `gorm:"primarykey" json:"id"`                    // 主键
	ProfileID   uint           `gorm:"uniqueIndex;not null" json:"profile_id"`  // 档案ID
	CompanyName string         `gorm:"not null" json:"company_name"`            // 公司名称
	Verified    bool           `gorm:"default:false;index" json:"verified"`     // 是否已认证
	Rating      float64        `gorm:"not null;default:0" json:"rating"`        // 评分
	Description string         `gorm:"type:text" json:"description"`            // 简介
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                              // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间

	Profile *Profile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"` // 关联档案
}

// TableName 指定表名
func (SupplierProfile) TableName() string {
	return "supplier_profiles"
}
