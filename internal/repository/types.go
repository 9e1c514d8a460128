package repository

import "time"

// MaterialListFilter 查询建材列表的过滤条件
type MaterialListFilter struct {
	Page       int
	PageSize   int
	SupplierID uint
	Category   string
	Search     string
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	EngineerID  uint
	SupplierID  uint
	MaterialID  uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// DeliveryListFilter 查询配送单列表的过滤条件
type DeliveryListFilter struct {
	Page     int
	PageSize int
	AgentID  uint
	// Pending / InTransit / Completed 互斥，按先后顺序生效
	OnlyPending   bool
	OnlyInTransit bool
	OnlyCompleted bool
}

// ProfileListFilter 查询档案列表的过滤条件
type ProfileListFilter struct {
	Page       int
	PageSize   int
	Role       string
	Keyword    string
	OnlyActive bool
}

// NotificationListFilter 查询站内通知列表的过滤条件
type NotificationListFilter struct {
	Page        int
	PageSize    int
	RecipientID uint
	OnlyUnread  bool
}
