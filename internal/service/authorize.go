package service

import (
	"github.com/buildhub-next/internal/authz"
	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/models"
	"github.com/buildhub-next/internal/repository"
)

// loadActor 加载操作者档案并校验可用性
func loadActor(profileRepo repository.ProfileRepository, actorID uint) (*models.Profile, error) {
	if actorID == 0 {
		return nil, ErrProfileNotFound
	}
	actor, err := profileRepo.GetByID(actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, ErrProfileNotFound
	}
	if !actor.IsActive {
		return nil, ErrProfileInactive
	}
	return actor, nil
}

// authorizeActor 按操作者角色执行授权判定
// 每个业务操作的第一步：操作者身份始终作为显式参数传入，不从任何环境态推断。
func authorizeActor(authzSvc *authz.Service, actor *models.Profile, object, action string) error {
	if actor == nil {
		return ErrProfileNotFound
	}
	if authzSvc == nil {
		return nil
	}
	allow, err := authzSvc.EnforceRole(actor.Role, object, action)
	if err != nil {
		return err
	}
	if !allow {
		return ErrActorForbidden
	}
	return nil
}

// isAdmin 判断操作者是否管理员
func isAdmin(actor *models.Profile) bool {
	return actor != nil && actor.Role == constants.RoleAdmin
}
