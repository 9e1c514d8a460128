package api

import (
	"strconv"

	"github.com/buildhub-next/internal/http/response"
	"github.com/buildhub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// EngineerReport 工程师采购报表
func (h *Handler) EngineerReport(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	report, err := h.ReportService.GetEngineerReport(actorID, parseTargetID(c), parseReportRange(c))
	if err != nil {
		respondWithMappedError(c, err, reportErrorRules, response.CodeInternal, "报表生成失败")
		return
	}
	response.Success(c, report)
}

// SupplierReport 供应商经营报表
func (h *Handler) SupplierReport(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	report, err := h.ReportService.GetSupplierReport(actorID, parseTargetID(c), parseReportRange(c))
	if err != nil {
		respondWithMappedError(c, err, reportErrorRules, response.CodeInternal, "报表生成失败")
		return
	}
	response.Success(c, report)
}

// AgentReport 配送员工作量报表
func (h *Handler) AgentReport(c *gin.Context) {
	actorID, ok := getActorID(c)
	if !ok {
		return
	}

	report, err := h.ReportService.GetAgentReport(actorID, parseTargetID(c), parseReportRange(c))
	if err != nil {
		respondWithMappedError(c, err, reportErrorRules, response.CodeInternal, "报表生成失败")
		return
	}
	response.Success(c, report)
}

func parseTargetID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Query("target_id"), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func parseReportRange(c *gin.Context) service.ReportRange {
	rng := service.ReportRange{}
	if start, ok := parseTimeQuery(c, "start_at"); ok {
		rng.StartAt = *start
	}
	if end, ok := parseTimeQuery(c, "end_at"); ok {
		rng.EndAt = *end
	}
	return rng
}
