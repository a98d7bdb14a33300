package ez

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ecosol/internal/domain"
	mdw "ecosol/internal/transport/http/middleware"
	resp "ecosol/internal/transport/http/response"
)

// Callers 按身份解析调用方角色（每个请求查一次库）
type Callers interface {
	Caller(ctx context.Context, id *domain.Identity) (domain.Caller, error)
}

type EZ struct {
	g       *gin.RouterGroup
	callers Callers
}

func New(g *gin.RouterGroup, callers Callers) EZ { return EZ{g: g, callers: callers} }

// Group 子路径
func (e EZ) Group(path string) EZ { return EZ{g: e.g.Group(path), callers: e.callers} }

// 绑定方式
type Binder string

const (
	BindJSON    Binder = "json"     // 从 JSON 绑定
	BindQuery   Binder = "query"    // 从 URL ?a=b 绑定
	BindURI     Binder = "uri"      // 从路径参数 :id 绑定
	BindURIJSON Binder = "uri+json" // 路径参数 + JSON（空 body 时只绑路径）
	BindNone    Binder = "none"     // 不绑定，自己从 c.Param 取
)

// 统一错误对象
type AErr struct {
	Code int
	Msg  string
	Err  error
	Data any // 失败时仍需要返回给调用方的数据
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// WithData 失败响应附带数据
func WithData(err error, data any) error {
	ae := toAErr(err)
	ae.Data = data
	return ae
}

// CodeOf 领域错误分类 → 响应码
func CodeOf(k domain.Kind) int {
	switch k {
	case domain.KindUnauthenticated:
		return resp.CodeUnauthorized
	case domain.KindUnauthorized:
		return resp.CodeForbidden
	case domain.KindNotFound:
		return resp.CodeNotFound
	case domain.KindValidation:
		return resp.CodeBadRequest
	case domain.KindConflict:
		return resp.CodeConflict
	case domain.KindUpstream:
		return resp.CodeBadGateway
	}
	return resp.CodeServerError
}

func toAErr(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	var de *domain.Error
	if errors.As(err, &de) {
		msg := de.Msg
		if de.Kind == domain.KindUpstream {
			msg = "upstream failure"
		}
		return &AErr{Code: CodeOf(de.Kind), Msg: msg, Err: err}
	}
	return &AErr{Code: resp.CodeServerError, Msg: "internal error", Err: err}
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string        // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string        // 例："/listings/:id"
	Binder  Binder        // 绑定方式
	Auth    bool          // 是否要求登录
	Roles   []domain.Role // 限定角色（可选，隐含 Auth）
	Handler func(c *gin.Context, caller domain.Caller, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		id := mdw.Identity(c)
		if (a.Auth || len(a.Roles) > 0) && id == nil {
			fail(c, Unauthorized("login required"))
			return
		}
		caller := domain.Anonymous
		if id != nil {
			var err error
			if caller, err = e.callers.Caller(c.Request.Context(), id); err != nil {
				fail(c, err)
				return
			}
		}
		if len(a.Roles) > 0 && !hasRole(caller, a.Roles) {
			fail(c, Forbidden("forbidden"))
			return
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindURI:
			bindErr = c.ShouldBindUri(&in)
		case BindURIJSON:
			if bindErr = c.ShouldBindUri(&in); bindErr == nil && c.Request.ContentLength != 0 {
				bindErr = c.ShouldBindJSON(&in)
			}
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			var mbe *http.MaxBytesError
			if errors.As(bindErr, &mbe) {
				fail(c, &AErr{Code: resp.CodeTooLarge, Msg: "request body too large"})
				return
			}
			fail(c, BadRequest(bindErr.Error()))
			return
		}

		// 3) 执行
		out, err := a.Handler(c, caller, &in)
		if err != nil {
			fail(c, err)
			return
		}
		resp.Write(c, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

// 4) 统一错误映射
func fail(c *gin.Context, err error) {
	ae := toAErr(err)
	if ae.Err != nil {
		_ = c.Error(ae.Err)
	}
	resp.Fail(c, ae.Code, ae.Error(), ae.Data)
}

func hasRole(c domain.Caller, roles []domain.Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
