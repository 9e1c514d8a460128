package api

import (
	"strconv"
	"strings"

	"github.com/buildhub-next/internal/http/response"
	"github.com/buildhub-next/internal/models"
	"github.com/buildhub-next/internal/repository"
	"github.com/buildhub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateMaterialRequest 上架建材请求
type CreateMaterialRequest struct {
	SupplierID  uint         `json:"supplier_id"`
	Name        string       `json:"name" binding:"required"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	UnitPrice   models.Money `json:"unit_price" binding:"required"`
	StockLevel  int          `json:"stock_level"`
}

// UpdateMaterialRequest 更新建材请求
type UpdateMaterialRequest struct {
	Name        *string       `json:"name"`
	Category    *string       `json:"category"`
	Description *string       `json:"description"`
	UnitPrice   *models.Money `json:"unit_price"`
	IsActive    *bool         `json:"is_active"`
}

// RestockMaterialRequest 补货请求
type RestockMaterialRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// CreateMaterial 上架建材
func (h *Handler) CreateMaterial(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	var req CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	material, err := h.MaterialService.CreateMaterial(actorID, service.CreateMaterialInput{
		SupplierID:  req.SupplierID,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		StockLevel:  req.StockLevel,
	})
	if err != nil {
		respondWithMappedError(c, err, materialErrorRules, response.CodeInternal, "建材创建失败")
		return
	}
	response.Success(c, material)
}

// UpdateMaterial 更新建材
func (h *Handler) UpdateMaterial(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	materialID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	material, err := h.MaterialService.UpdateMaterial(materialID, actorID, service.UpdateMaterialInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithMappedError(c, err, materialErrorRules, response.CodeInternal, "建材更新失败")
		return
	}
	response.Success(c, material)
}

// RestockMaterial 补充库存
func (h *Handler) RestockMaterial(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	materialID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req RestockMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	material, err := h.MaterialService.RestockMaterial(materialID, actorID, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, materialErrorRules, response.CodeInternal, "补货失败")
		return
	}
	response.Success(c, material)
}

// DeactivateMaterial 下架建材
func (h *Handler) DeactivateMaterial(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	materialID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.MaterialService.DeactivateMaterial(materialID, actorID); err != nil {
		respondWithMappedError(c, err, materialErrorRules, response.CodeInternal, "建材下架失败")
		return
	}
	response.Success(c, nil)
}

// DeleteMaterial 删除建材
func (h *Handler) DeleteMaterial(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	materialID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.MaterialService.DeleteMaterial(materialID, actorID); err != nil {
		respondWithMappedError(c, err, materialErrorRules, response.CodeInternal, "建材删除失败")
		return
	}
	response.Success(c, nil)
}

// GetMaterial 获取建材详情
func (h *Handler) GetMaterial(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}
	materialID, ok := parseIDParam(c)
	if !ok {
		return
	}

	material, err := h.MaterialService.GetMaterial(materialID, actorID)
	if err != nil {
		respondWithMappedError(c, err, materialErrorRules, response.CodeInternal, "建材查询失败")
		return
	}
	response.Success(c, material)
}

// ListMaterials 获取建材列表
func (h *Handler) ListMaterials(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	materials, total, err := h.MaterialService.ListMaterials(actorID, repository.MaterialListFilter{
		Page:     page,
		PageSize: pageSize,
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondWithMappedError(c, err, materialErrorRules, response.CodeInternal, "建材查询失败")
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, materials, pagination)
}
