package api

import (
	"strconv"
	"strings"

	"github.com/buildhub-next/internal/http/response"
	"github.com/buildhub-next/internal/repository"
	"github.com/buildhub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateProfileRequest 新建档案请求
type CreateProfileRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email"`
	Role        string `json:"role" binding:"required"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	CompanyName string `json:"company_name"`
	Description string `json:"description"`
}

// UpdateProfileRequest 更新档案请求
type UpdateProfileRequest struct {
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// CreateProfile 创建档案（管理员）
func (h *Handler) CreateProfile(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	profile, err := h.ProfileService.CreateProfile(actorID, service.CreateProfileInput{
		Username:    req.Username,
		Email:       req.Email,
		Role:        req.Role,
		Phone:       req.Phone,
		Address:     req.Address,
		CompanyName: req.CompanyName,
		Description: req.Description,
	})
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "档案创建失败")
		return
	}
	response.Success(c, profile)
}

// GetProfile 获取档案详情
func (h *Handler) GetProfile(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	profileID, ok := parseIDParam(c)
	if !ok {
		return
	}

	profile, err := h.ProfileService.GetProfile(profileID, actorID)
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "档案查询失败")
		return
	}
	response.Success(c, profile)
}

// ListProfiles 档案列表（管理员）
func (h *Handler) ListProfiles(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	profiles, total, err := h.ProfileService.ListProfiles(actorID, repository.ProfileListFilter{
		Page:     page,
		PageSize: pageSize,
		Role:     strings.TrimSpace(c.Query("role")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "档案查询失败")
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, profiles, pagination)
}

// UpdateProfile 更新档案联系信息
func (h *Handler) UpdateProfile(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	profileID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	profile, err := h.ProfileService.UpdateProfile(profileID, actorID, service.UpdateProfileInput{
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "档案更新失败")
		return
	}
	response.Success(c, profile)
}

// ActivateProfile 启用档案（管理员）
func (h *Handler) ActivateProfile(c *gin.Context) {
	h.setProfileActive(c, true)
}

// DeactivateProfile 停用档案（管理员）
func (h *Handler) DeactivateProfile(c *gin.Context) {
	h.setProfileActive(c, false)
}

func (h *Handler) setProfileActive(c *gin.Context, active bool) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	profileID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.ProfileService.SetProfileActive(profileID, actorID, active); err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "档案状态更新失败")
		return
	}
	response.Success(c, nil)
}

// VerifySupplierRequest 供应商核验请求
type VerifySupplierRequest struct {
	Verified bool `json:"verified"`
}

// VerifySupplier 核验供应商（管理员）
func (h *Handler) VerifySupplier(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	supplierID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req VerifySupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	if err := h.ProfileService.VerifySupplier(supplierID, actorID, req.Verified); err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "供应商核验失败")
		return
	}
	response.Success(c, nil)
}
