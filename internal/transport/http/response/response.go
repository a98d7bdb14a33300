package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Resp 统一外壳；失败时 HTTP 状态与 Code 一致
type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// New data 为 nil 时输出 {}
func New(code int, msg string, data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	if msg == "" {
		msg = CodeMsgMap[code]
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data any) Resp { return New(CodeOK, "", data) }

// Error msg 为空时用默认文案
func Error(code int, msg string) Resp { return New(code, msg, nil) }

// Write 200 + code 0
func Write(c *gin.Context, data any) {
	c.JSON(http.StatusOK, OK(data))
}

// Fail 写错误外壳并中断；data 用于批量操作这类“失败但有结果”的场景
func Fail(c *gin.Context, code int, msg string, data any) {
	c.AbortWithStatusJSON(Status(code), New(code, msg, data))
}

func Abort(c *gin.Context, code int, msg string) { Fail(c, code, msg, nil) }
