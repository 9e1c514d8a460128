package service

import "errors"

// 档案相关错误
var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileInactive      = errors.New("profile inactive")
	ErrProfileInvalid       = errors.New("invalid profile params")
	ErrProfileUsernameTaken = errors.New("username already taken")
	ErrSupplierNotFound     = errors.New("supplier not found")
	ErrActorForbidden       = errors.New("actor not allowed for this operation")
)

// 建材与库存相关错误
var (
	ErrMaterialNotFound  = errors.New("material not found")
	ErrMaterialInactive  = errors.New("material inactive")
	ErrMaterialInvalid   = errors.New("invalid material params")
	ErrMaterialHasOrders = errors.New("material referenced by orders")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// 订单相关错误
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrQuantityInvalid        = errors.New("invalid order quantity")
	ErrOrderTransitionInvalid = errors.New("invalid order status transition")
)

// 配送相关错误
var (
	ErrDeliveryNotFound      = errors.New("delivery not found")
	ErrDeliveryActionInvalid = errors.New("invalid delivery action")
)

// 通知与邮件相关错误
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrNotificationEventInvalid  = errors.New("invalid notification event")
	ErrNotificationNotFound      = errors.New("notification not found")
)

// 报表相关错误
var (
	ErrReportRangeInvalid = errors.New("invalid report date range")
)
