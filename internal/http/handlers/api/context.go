package api

import (
	handlershared "github.com/buildhub-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

// getActorID 读取中间件注入的操作者档案 ID
func getActorID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "profile_id")
}
