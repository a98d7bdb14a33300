package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestConcurrencyLimitRejectsAfterWait(t *testing.T) {
	gin.SetMode(gin.TestMode)
	release := make(chan struct{})
	entered := make(chan struct{})
	r := gin.New()
	r.Use(ConcurrencyLimit(1, 20*time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	var wg sync.WaitGroup
	wg.Add(1)
	var first *httptest.ResponseRecorder
	go func() {
		defer wg.Done()
		first = serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	}()
	<-entered

	w := serve(r, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/fast", nil)).Code)
}

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
}

func TestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(10*time.Millisecond, zap.NewNop()))
	r.GET("/silent", func(c *gin.Context) { <-c.Request.Context().Done() })
	r.GET("/late", func(c *gin.Context) {
		<-c.Request.Context().Done()
		c.JSON(http.StatusConflict, gin.H{"late": true})
	})
	r.GET("/quick", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/silent", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), `"code":504`)

	// handler 已经写了响应，不覆盖
	w = serve(r, httptest.NewRequest(http.MethodGet, "/late", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"late":true}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/quick", nil)).Code)
}

func TestTimeoutDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(0, zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		_, has := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": has})
	})
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"deadline":false}`, w.Body.String())
}

func TestMaxBodyBytes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/", func(c *gin.Context) {
		var v map[string]any
		if err := c.ShouldBindJSON(&v); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`)))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}
