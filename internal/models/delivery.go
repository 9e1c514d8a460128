package models

import (
	"time"
)

// Delivery 配送单表（与订单一对一）
type Delivery struct {
	ID           uint       `gorm:"primarykey" json:"id"`                 // 主键
	OrderID      uint       `gorm:"uniqueIndex;not null" json:"order_id"` // 订单ID
	AgentID      *uint      `gorm:"index" json:"agent_id"`                // 配送员档案ID（未分配时为空）
	Location     string     `gorm:"default:''" json:"location"`           // 配送地址
	Notes        string     `gorm:"type:text" json:"notes"`               // 配送备注（只追加，不改写）
	DispatchedAt *time.Time `json:"dispatched_at"`                        // 发货时间
	DeliveredAt  *time.Time `json:"delivered_at"`                         // 送达时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                           // 更新时间

	// 关联
	Agent *Profile `gorm:"foreignKey:AgentID" json:"agent,omitempty"` // 配送员
	Order *Order   `gorm:"foreignKey:OrderID" json:"order,omitempty"` // 订单
}

// TableName 指定表名
func (Delivery) TableName() string {
	return "deliveries"
}
