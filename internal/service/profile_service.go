package service

import (
	"strings"

	"github.com/buildhub-next/internal/authz"
	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/models"
	"github.com/buildhub-next/internal/repository"

	"gorm.io/gorm"
)

// ProfileService 档案目录服务
type ProfileService struct {
	profileRepo  repository.ProfileRepository
	supplierRepo repository.SupplierRepository
	authzService *authz.Service
}

// NewProfileService 创建档案服务
func NewProfileService(profileRepo repository.ProfileRepository, supplierRepo repository.SupplierRepository, authzService *authz.Service) *ProfileService {
	return &ProfileService{
		profileRepo:  profileRepo,
		supplierRepo: supplierRepo,
		authzService: authzService,
	}
}

// CreateProfileInput 新建档案输入
type CreateProfileInput struct {
	Username string
	Email    string
	Role     string
	Phone    string
	Address  string
	// 供应商角色的企业信息
	CompanyName string
	Description string
}

// CreateProfile 创建档案（管理员操作；供应商同时建立企业档案）
func (s *ProfileService) CreateProfile(actorID uint, input CreateProfileInput) (*models.Profile, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectProfile, constants.AuthzActionManage); err != nil {
		return nil, err
	}
	if !isAdmin(actor) {
		return nil, ErrActorForbidden
	}

	username := strings.TrimSpace(input.Username)
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if username == "" || !isKnownRole(role) {
		return nil, ErrProfileInvalid
	}
	if existing, err := s.profileRepo.GetByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrProfileUsernameTaken
	}

	profile := &models.Profile{
		Username: username,
		Email:    strings.TrimSpace(input.Email),
		Role:     role,
		Phone:    strings.TrimSpace(input.Phone),
		Address:  strings.TrimSpace(input.Address),
		IsActive: true,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.profileRepo.WithTx(tx).Create(profile); err != nil {
			return err
		}
		if role != constants.RoleSupplier {
			return nil
		}
		companyName := strings.TrimSpace(input.CompanyName)
		if companyName == "" {
			companyName = username
		}
		return s.supplierRepo.WithTx(tx).Create(&models.SupplierProfile{
			ProfileID:   profile.ID,
			CompanyName: companyName,
			Description: strings.TrimSpace(input.Description),
		})
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfile 获取档案（本人或管理员）
func (s *ProfileService) GetProfile(profileID uint, actorID uint) (*models.Profile, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.ID != profileID && !isAdmin(actor) {
		return nil, ErrActorForbidden
	}
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// ListProfiles 档案列表（管理员）
func (s *ProfileService) ListProfiles(actorID uint, filter repository.ProfileListFilter) ([]models.Profile, int64, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, 0, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectProfile, constants.AuthzActionManage); err != nil {
		return nil, 0, err
	}
	if !isAdmin(actor) {
		return nil, 0, ErrActorForbidden
	}
	return s.profileRepo.List(filter)
}

// UpdateProfileInput 更新档案输入（nil 字段不更新）
type UpdateProfileInput struct {
	Email   *string
	Phone   *string
	Address *string
}

// UpdateProfile 更新联系信息（本人或管理员）
func (s *ProfileService) UpdateProfile(profileID uint, actorID uint, input UpdateProfileInput) (*models.Profile, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.ID != profileID && !isAdmin(actor) {
		return nil, ErrActorForbidden
	}
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	updates := map[string]interface{}{}
	if input.Email != nil {
		updates["email"] = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if len(updates) == 0 {
		return profile, nil
	}
	if err := s.profileRepo.Update(profile.ID, updates); err != nil {
		return nil, err
	}
	return s.profileRepo.GetByID(profile.ID)
}

// SetProfileActive 启用 / 停用档案（管理员）
// 停用的配送员不再进入分配候选，但在途配送单不受影响。
func (s *ProfileService) SetProfileActive(profileID uint, actorID uint, active bool) error {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectProfile, constants.AuthzActionManage); err != nil {
		return err
	}
	if !isAdmin(actor) {
		return ErrActorForbidden
	}
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}
	return s.profileRepo.Update(profile.ID, map[string]interface{}{"is_active": active})
}

// VerifySupplier 标记供应商企业档案已核验（管理员）
func (s *ProfileService) VerifySupplier(supplierID uint, actorID uint, verified bool) error {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectProfile, constants.AuthzActionManage); err != nil {
		return err
	}
	if !isAdmin(actor) {
		return ErrActorForbidden
	}
	supplier, err := s.supplierRepo.GetByID(supplierID)
	if err != nil {
		return err
	}
	if supplier == nil {
		return ErrSupplierNotFound
	}
	return s.supplierRepo.Update(supplier.ID, map[string]interface{}{"verified": verified})
}

func isKnownRole(role string) bool {
	switch role {
	case constants.RoleEngineer, constants.RoleSupplier, constants.RoleDelivery, constants.RoleAdmin:
		return true
	}
	return false
}
