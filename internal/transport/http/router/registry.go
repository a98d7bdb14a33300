package router

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"

	"ecosol/internal/transport/http/ez"
)

// 模块可选择实现其中一个或多个接口
type APIModule interface{ MountAPI(ez.EZ) }
type PageModule interface{ MountPages(*gin.RouterGroup) }
type AdminPageModule interface{ MountAdminPages(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

type Registry struct {
	mu         sync.RWMutex
	api        []APIModule
	pages      []PageModule
	adminPages []AdminPageModule
}

// Register 根据类型断言分发到各列表；一个都没实现的模块被忽略
func (r *Registry) Register(mods ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mod := range mods {
		if m, ok := mod.(APIModule); ok {
			r.api = append(r.api, m)
		}
		if m, ok := mod.(PageModule); ok {
			r.pages = append(r.pages, m)
		}
		if m, ok := mod.(AdminPageModule); ok {
			r.adminPages = append(r.adminPages, m)
		}
	}
}

// MountAPI 在 /api/v1 上挂载所有 API 模块
func (r *Registry) MountAPI(e ez.EZ) {
	for _, m := range sorted(r, r.api) {
		m.MountAPI(e)
	}
}

func (r *Registry) MountPages(g *gin.RouterGroup) {
	for _, m := range sorted(r, r.pages) {
		m.MountPages(g)
	}
}

// MountAdminPages 分组上已挂 RequireRolePage(ADMIN)
func (r *Registry) MountAdminPages(g *gin.RouterGroup) {
	for _, m := range sorted(r, r.adminPages) {
		m.MountAdminPages(g)
	}
}

func sorted[T any](r *Registry, src []T) []T {
	r.mu.RLock()
	mods := append([]T(nil), src...)
	r.mu.RUnlock()

	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	return mods
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
