package service

import (
	"context"
	"fmt"
	"time"

	"github.com/buildhub-next/internal/authz"
	"github.com/buildhub-next/internal/cache"
	"github.com/buildhub-next/internal/constants"
	"github.com/buildhub-next/internal/logger"
	"github.com/buildhub-next/internal/repository"
)

// ReportService 经营报表服务
type ReportService struct {
	reportRepo   repository.ReportRepository
	profileRepo  repository.ProfileRepository
	supplierRepo repository.SupplierRepository
	authzService *authz.Service
	cacheTTL     time.Duration
}

// NewReportService 创建报表服务
func NewReportService(reportRepo repository.ReportRepository, profileRepo repository.ProfileRepository, supplierRepo repository.SupplierRepository, authzService *authz.Service, cacheTTL time.Duration) *ReportService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &ReportService{
		reportRepo:   reportRepo,
		profileRepo:  profileRepo,
		supplierRepo: supplierRepo,
		authzService: authzService,
		cacheTTL:     cacheTTL,
	}
}

// ReportRange 报表统计区间（左闭右开）
type ReportRange struct {
	StartAt time.Time
	EndAt   time.Time
}

// normalize 校验并补全区间：缺省为最近 30 天
func (r ReportRange) normalize() (time.Time, time.Time, error) {
	start, end := r.StartAt, r.EndAt
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrReportRangeInvalid
	}
	return start, end, nil
}

// EngineerReport 工程师采购报表
type EngineerReport struct {
	EngineerID   uint                            `json:"engineer_id"`
	StartAt      time.Time                       `json:"start_at"`
	EndAt        time.Time                       `json:"end_at"`
	Overview     repository.EngineerOverviewRow  `json:"overview"`
	TopSuppliers []repository.SupplierRankingRow `json:"top_suppliers"`
}

// SupplierReport 供应商经营报表
type SupplierReport struct {
	SupplierID   uint                            `json:"supplier_id"`
	StartAt      time.Time                       `json:"start_at"`
	EndAt        time.Time                       `json:"end_at"`
	Overview     repository.SupplierOverviewRow  `json:"overview"`
	TopMaterials []repository.MaterialRankingRow `json:"top_materials"`
}

// AgentReport 配送员工作量报表
type AgentReport struct {
	AgentID  uint                        `json:"agent_id"`
	StartAt  time.Time                   `json:"start_at"`
	EndAt    time.Time                   `json:"end_at"`
	Overview repository.AgentOverviewRow `json:"overview"`
}

// GetEngineerReport 工程师采购报表（工程师看自己，管理员可指定 targetID）
func (s *ReportService) GetEngineerReport(actorID uint, targetID uint, rng ReportRange) (*EngineerReport, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectReport, constants.AuthzActionRead); err != nil {
		return nil, err
	}
	engineerID := actor.ID
	if isAdmin(actor) && targetID != 0 {
		engineerID = targetID
	} else if targetID != 0 && targetID != actor.ID {
		return nil, ErrActorForbidden
	}

	start, end, err := rng.normalize()
	if err != nil {
		return nil, err
	}

	overview, err := s.reportRepo.GetEngineerOverview(engineerID, start, end)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.reportRepo.GetTopSuppliersByEngineer(engineerID, start, end, 5)
	if err != nil {
		return nil, err
	}
	return &EngineerReport{
		EngineerID:   engineerID,
		StartAt:      start,
		EndAt:        end,
		Overview:     overview,
		TopSuppliers: suppliers,
	}, nil
}

// GetSupplierReport 供应商经营报表（Redis 短缓存，TTL 可配）
func (s *ReportService) GetSupplierReport(actorID uint, targetSupplierID uint, rng ReportRange) (*SupplierReport, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectReport, constants.AuthzActionRead); err != nil {
		return nil, err
	}

	var supplierID uint
	if isAdmin(actor) && targetSupplierID != 0 {
		supplier, err := s.supplierRepo.GetByID(targetSupplierID)
		if err != nil {
			return nil, err
		}
		if supplier == nil {
			return nil, ErrSupplierNotFound
		}
		supplierID = supplier.ID
	} else {
		supplier, err := s.supplierRepo.GetByProfileID(actor.ID)
		if err != nil {
			return nil, err
		}
		if supplier == nil {
			return nil, ErrSupplierNotFound
		}
		if targetSupplierID != 0 && targetSupplierID != supplier.ID {
			return nil, ErrActorForbidden
		}
		supplierID = supplier.ID
	}

	start, end, err := rng.normalize()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	cacheKey := fmt.Sprintf("report:supplier:%d:%d:%d", supplierID, start.Unix(), end.Unix())
	cached := &SupplierReport{}
	if hit, err := cache.GetJSON(ctx, cacheKey, cached); err != nil {
		logger.Warnw("supplier_report_cache_read_failed", "key", cacheKey, "error", err)
	} else if hit {
		return cached, nil
	}

	overview, err := s.reportRepo.GetSupplierOverview(supplierID, start, end)
	if err != nil {
		return nil, err
	}
	materials, err := s.reportRepo.GetTopMaterialsBySupplier(supplierID, start, end, 5)
	if err != nil {
		return nil, err
	}
	report := &SupplierReport{
		SupplierID:   supplierID,
		StartAt:      start,
		EndAt:        end,
		Overview:     overview,
		TopMaterials: materials,
	}
	if err := cache.SetJSON(ctx, cacheKey, report, s.cacheTTL); err != nil {
		logger.Warnw("supplier_report_cache_write_failed", "key", cacheKey, "error", err)
	}
	return report, nil
}

// GetAgentReport 配送员工作量报表（配送员看自己，管理员可指定 targetID）
func (s *ReportService) GetAgentReport(actorID uint, targetID uint, rng ReportRange) (*AgentReport, error) {
	actor, err := loadActor(s.profileRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeActor(s.authzService, actor, constants.AuthzObjectReport, constants.AuthzActionRead); err != nil {
		return nil, err
	}
	agentID := actor.ID
	if isAdmin(actor) && targetID != 0 {
		agentID = targetID
	} else if targetID != 0 && targetID != actor.ID {
		return nil, ErrActorForbidden
	}

	start, end, err := rng.normalize()
	if err != nil {
		return nil, err
	}

	overview, err := s.reportRepo.GetAgentOverview(agentID, start, end)
	if err != nil {
		return nil, err
	}
	return &AgentReport{
		AgentID:  agentID,
		StartAt:  start,
		EndAt:    end,
		Overview: overview,
	}, nil
}
