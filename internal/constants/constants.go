package constants

// 角色常量
const (
	RoleEngineer = "engineer"
	RoleSupplier = "supplier"
	RoleDelivery = "delivery"
	RoleAdmin    = "admin"
)

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusDispatched = "dispatched"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 配送推进动作常量
const (
	DeliveryActionDispatch = "dispatch"
	DeliveryActionDeliver  = "deliver"
)

// 订单事件常量（用于通知派发）
const (
	OrderEventPlaced     = "placed"
	OrderEventConfirmed  = "confirmed"
	OrderEventDispatched = "dispatched"
	OrderEventDelivered  = "delivered"
	OrderEventCancelled  = "cancelled"
)

// 队列常量
const (
	QueueDefault          = "default"
	TaskOrderNotification = "notify:order_event"
	TaskDeliveryAssign    = "delivery:assign"
)

// 授权对象常量
const (
	AuthzObjectOrder    = "order"
	AuthzObjectMaterial = "material"
	AuthzObjectDelivery = "delivery"
	AuthzObjectReport   = "report"
	AuthzObjectProfile  = "profile"
)

// 授权动作常量
const (
	AuthzActionPlace   = "place"
	AuthzActionConfirm = "confirm"
	AuthzActionCancel  = "cancel"
	AuthzActionManage  = "manage"
	AuthzActionAdvance = "advance"
	AuthzActionRead    = "read"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "bh"
)
