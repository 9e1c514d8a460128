package service

import (
	"strings"

	"github.com/buildhub-next/internal/constants"
)

// allowedTransitions 订单状态机：pending → confirmed → dispatched → delivered，
// cancelled 仅可从 pending / confirmed 到达。
// confirmed → delivered 允许跳过 dispatch（发货时间戳由配送服务回填）。
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusDispatched: true,
		constants.OrderStatusDelivered:  true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusDispatched: {
		constants.OrderStatusDelivered: true,
	},
}

// canTransition 判断状态迁移是否合法
func canTransition(from, to string) bool {
	targets, ok := allowedTransitions[normalizeStatus(from)]
	if !ok {
		return false
	}
	return targets[normalizeStatus(to)]
}

// isTerminalStatus 判断是否终态（delivered / cancelled）
func isTerminalStatus(status string) bool {
	normalized := normalizeStatus(status)
	return normalized == constants.OrderStatusDelivered || normalized == constants.OrderStatusCancelled
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
