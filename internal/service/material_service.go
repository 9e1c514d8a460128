package service

import (
	"strings"

	"github.com/buildhub-next/internal/authz"
	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/models"
	"github.com/buildhub-next/internal/repository"
)

// MaterialService 建材目录与库存台账服务
type MaterialService struct {
	materialRepo repository.MaterialRepository
	supplierRepo repository.SupplierRepository
	profileRepo  repository.ProfileRepository
	authzService *authz.Service
}

// NewMaterialService 创建建材服务
func NewMaterialService(materialRepo repository.MaterialRepository, supplierRepo repository.SupplierRepository, profileRepo repository.ProfileRepository, authzService *authz.Service) *MaterialService {
	return &MaterialService{
		materialRepo: materialRepo,
		supplierRepo: supplierRepo,
		profileRepo:  profileRepo,
		authzService: authzService,
	}
}

// CreateMaterialInput 新建建材输入
type CreateMaterialInput struct {
	// SupplierID 仅管理员可指定；供应商固定落在自己名下
	SupplierID  uint
	Name        string
	Category    string
	Description string
	UnitPrice   models.Money
	StockLevel  int
}

// UpdateMaterialInput 更新建材输入（nil 字段不更新）
type UpdateMaterialInput struct {
	Name        *string
	Category    *string
	Description *string
	UnitPrice   *models.Money
	IsActive    *bool
}

// CreateMaterial 上架建材
func (s *MaterialService) CreateMaterial(actorID uint, input CreateMaterialInput) (*models.Material, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectMaterial, constants.AuthzActionManage); err != nil {
		return nil, err
	}

	supplierID, err := s.resolveSupplierID(actor, input.SupplierID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || input.StockLevel < 0 || input.UnitPrice.IsNegative() {
		return nil, ErrMaterialInvalid
	}

	material := &models.Material{
		SupplierID:  supplierID,
		Name:        name,
		Category:    strings.TrimSpace(input.Category),
		Description: strings.TrimSpace(input.Description),
		UnitPrice:   models.NewMoneyFromDecimal(input.UnitPrice.Decimal),
		StockLevel:  input.StockLevel,
		IsActive:    true,
	}
	if err := s.materialRepo.Create(material); err != nil {
		return nil, err
	}
	return material, nil
}

// UpdateMaterial 更新建材信息（不含库存，库存走 Restock / 订单事务）
func (s *MaterialService) UpdateMaterial(materialID uint, actorID uint, input UpdateMaterialInput) (*models.Material, error) {
	_, material, err := s.loadOwnedMaterial(materialID, actorID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrMaterialInvalid
		}
		updates["name"] = name
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return nil, ErrMaterialInvalid
		}
		updates["unit_price"] = models.NewMoneyFromDecimal(input.UnitPrice.Decimal)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return material, nil
	}

	if err := s.materialRepo.Update(material.ID, updates); err != nil {
		return nil, err
	}
	return s.materialRepo.GetByID(material.ID)
}

// RestockMaterial 补充库存（原子自增，与订单预占互不覆盖）
func (s *MaterialService) RestockMaterial(materialID uint, actorID uint, quantity int) (*models.Material, error) {
	_, material, err := s.loadOwnedMaterial(materialID, actorID)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, ErrQuantityInvalid
	}
	if _, err := s.materialRepo.ReleaseStock(material.ID, quantity); err != nil {
		return nil, err
	}
	return s.materialRepo.GetByID(material.ID)
}

// DeactivateMaterial 下架建材（保留历史订单引用）
func (s *MaterialService) DeactivateMaterial(materialID uint, actorID uint) error {
	_, material, err := s.loadOwnedMaterial(materialID, actorID)
	if err != nil {
		return err
	}
	return s.materialRepo.Update(material.ID, map[string]interface{}{"is_active": false})
}

// DeleteMaterial 删除建材（被订单引用的只能下架）
func (s *MaterialService) DeleteMaterial(materialID uint, actorID uint) error {
	_, material, err := s.loadOwnedMaterial(materialID, actorID)
	if err != nil {
		return err
	}
	count, err := s.materialRepo.CountOrders(material.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrMaterialHasOrders
	}
	return s.materialRepo.Delete(material.ID)
}

// GetMaterial 获取建材详情
func (s *MaterialService) GetMaterial(materialID uint, actorID uint) (*models.Material, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectMaterial, constants.AuthzActionRead); err != nil {
		return nil, err
	}
	material, err := s.materialRepo.GetByID(materialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, ErrMaterialNotFound
	}
	return material, nil
}

// ListMaterials 建材列表
// 工程师只看在售目录；供应商收敛到自己名下（含下架项）。
func (s *MaterialService) ListMaterials(actorID uint, filter repository.MaterialListFilter) ([]models.Material, int64, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, 0, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectMaterial, constants.AuthzActionRead); err != nil {
		return nil, 0, err
	}

	switch actor.Role {
	case constants.RoleSupplier:
		supplier, err := s.supplierRepo.GetByProfileID(actor.ID)
		if err != nil {
			return nil, 0, err
		}
		if supplier == nil {
			return nil, 0, ErrSupplierNotFound
		}
		filter.SupplierID = supplier.ID
	case constants.RoleAdmin:
		// 管理员可见全量，保留调用方过滤条件
	default:
		filter.OnlyActive = true
	}
	return s.materialRepo.List(filter)
}

// loadOwnedMaterial 加载建材并校验管理权（供应商限自己名下，管理员放行）
func (s *MaterialService) loadOwnedMaterial(materialID uint, actorID uint) (*models.Profile, *models.Material, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectMaterial, constants.AuthzActionManage); err != nil {
		return nil, nil, err
	}
	material, err := s.materialRepo.GetByID(materialID)
	if err != nil {
		return nil, nil, err
	}
	if material == nil {
		return nil, nil, ErrMaterialNotFound
	}
	if !isAdmin(actor) {
		supplier, err := s.supplierRepo.GetByProfileID(actor.ID)
		if err != nil {
			return nil, nil, err
		}
		if supplier == nil || supplier.ID != material.SupplierID {
			return nil, nil, ErrActorForbidden
		}
	}
	return actor, material, nil
}

// resolveSupplierID 解析建材归属的供应商
func (s *MaterialService) resolveSupplierID(actor *models.Profile, requested uint) (uint, error) {
	if isAdmin(actor) {
		if requested == 0 {
			return 0, ErrSupplierNotFound
		}
		supplier, err := s.supplierRepo.GetByID(requested)
		if err != nil {
			return 0, err
		}
		if supplier == nil {
			return 0, ErrSupplierNotFound
		}
		return supplier.ID, nil
	}
	supplier, err := s.supplierRepo.GetByProfileID(actor.ID)
	if err != nil {
		return 0, err
	}
	if supplier == nil {
		return 0, ErrSupplierNotFound
	}
	return supplier.ID, nil
}
