package models

import (
	"time"

	"gorm.io/gorm"
)

// Material 建材表
type Material struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                       // 主键
	SupplierID  uint           `gorm:"not null;index" json:"supplier_id"`                          // 供应商ID
	Name        string         `gorm:"not null;index" json:"name"`                                 // 名称
	Category    string         `gorm:"type:varchar(50);index" json:"category"`                     // 类目（cement/steel/timber 等）
	Description string         `gorm:"type:text" json:"description"`                               // 描述
	UnitPrice   Money          `gorm:"type:decimal(10,2);not null;default:0" json:"unit_price"`    // 单价
	StockLevel  int            `gorm:"not null;default:0" json:"stock_level"`                      // 库存量（任何时刻不为负）
	IsActive    bool           `gorm:"index" json:"is_active"`                                     // 是否上架（创建方显式赋值，避免零值被默认值吞掉）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                 // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Supplier *SupplierProfile `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"` // 关联供应商
}

// TableName 指定表名
func (Material) TableName() string {
	return "materials"
}
