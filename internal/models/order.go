package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo          string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单号
	EngineerID       uint           `gorm:"not null;index" json:"engineer_id"`                         // 下单工程师ID
	SupplierID       uint           `gorm:"not null;index" json:"supplier_id"`                         // 供应商ID
	MaterialID       uint           `gorm:"not null;index" json:"material_id"`                         // 建材ID
	Quantity         int            `gorm:"not null" json:"quantity"`                                  // 数量
	UnitPrice        Money          `gorm:"type:decimal(10,2);not null;default:0" json:"unit_price"`   // 下单时单价快照
	TotalPrice       Money          `gorm:"type:decimal(12,2);not null;default:0" json:"total_price"`  // 总价（下单时固定，后续不变）
	Status           string         `gorm:"type:varchar(20);not null;index" json:"status"`             // 状态（pending/confirmed/dispatched/delivered/cancelled）
	DeliveryLocation string         `gorm:"default:''" json:"delivery_location"`                       // 收货地址（可选，缺省回退供应商档案地址）
	CancelledAt      *time.Time     `json:"cancelled_at"`                                              // 取消时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt        time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	// 关联
	Engineer *Profile         `gorm:"foreignKey:EngineerID" json:"engineer,omitempty"` // 下单工程师
	Supplier *SupplierProfile `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"` // 供应商
	Material *Material        `gorm:"foreignKey:MaterialID" json:"material,omitempty"` // 建材
	Delivery *Delivery        `gorm:"foreignKey:OrderID" json:"delivery,omitempty"`    // 配送单
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
