// Package handler HTTP 接口与页面视图模型；业务规则都在 service 层
package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type idURI struct {
	ID uint `uri:"id" binding:"required"`
}

// selectionIn 通知批量操作：ids 或 all
type selectionIn struct {
	IDs []uint `json:"ids"`
	All bool   `json:"all"`
}

type countOut struct {
	Changed int64 `json:"changed"`
}

func setCookies(c *gin.Context, cookies []*http.Cookie) {
	for _, ck := range cookies {
		http.SetCookie(c.Writer, ck)
	}
}

// safeNext 只接受站内相对路径，防止开放跳转
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/profile"
	}
	return next
}
