package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	cases := []struct {
		in   string
		keep bool
	}{
		{"abc-123_x.y", true},
		{"", false},
		{"has space", false},
		{"bad\nline", false},
		{strings.Repeat("a", 65), false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.in != "" {
			req.Header.Set(KeyRequestID, tc.in)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get(KeyRequestID)
		assert.Equal(t, got, w.Body.String())
		if tc.keep {
			assert.Equal(t, tc.in, got)
		} else {
			assert.NotEqual(t, tc.in, got)
			assert.Len(t, got, 36)
		}
	}
}
