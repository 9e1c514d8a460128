package authz

import (
	"fmt"

	"github.com/buildhub-next/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleEngineer,
			Policies: []Policy{
				{Object: constants.AuthzObjectMaterial, Action: constants.AuthzActionRead},
				{Object: constants.AuthzObjectOrder, Action: constants.AuthzActionPlace},
				{Object: constants.AuthzObjectOrder, Action: constants.AuthzActionCancel},
				{Object: constants.AuthzObjectOrder, Action: constants.AuthzActionRead},
				{Object: constants.AuthzObjectDelivery, Action: constants.AuthzActionRead},
				{Object: constants.AuthzObjectReport, Action: constants.AuthzActionRead},
			},
		},
		{
			Role: constants.RoleSupplier,
			Policies: []Policy{
				{Object: constants.AuthzObjectMaterial, Action: constants.AuthzActionRead},
				{Object: constants.AuthzObjectMaterial, Action: constants.AuthzActionManage},
				{Object: constants.AuthzObjectOrder, Action: constants.AuthzActionConfirm},
				{Object: constants.AuthzObjectOrder, Action: constants.AuthzActionRead},
				{Object: constants.AuthzObjectReport, Action: constants.AuthzActionRead},
			},
		},
		{
			Role: constants.RoleDelivery,
			Policies: []Policy{
				{Object: constants.AuthzObjectDelivery, Action: constants.AuthzActionRead},
				{Object: constants.AuthzObjectDelivery, Action: constants.AuthzActionAdvance},
				{Object: constants.AuthzObjectReport, Action: constants.AuthzActionRead},
			},
		},
		{
			Role: constants.RoleAdmin,
			Policies: []Policy{
				{Object: "*", Action: "*"},
			},
		},
	}
}

// Bootstrap 写入预置角色策略（幂等）
func Bootstrap(svc *Service) error {
	if svc == nil {
		return fmt.Errorf("authz service is nil")
	}
	for _, seed := range BuiltinRoleSeeds() {
		if _, err := svc.EnsureRole(seed.Role); err != nil {
			return fmt.Errorf("ensure role %s failed: %w", seed.Role, err)
		}
		for _, policy := range seed.Policies {
			if err := svc.GrantRolePolicy(seed.Role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("grant policy for %s failed: %w", seed.Role, err)
			}
		}
	}
	return svc.ReloadPolicy()
}
