package middleware

import (
	"github.com/gin-gonic/gin"

	"ecosol/internal/domain"
)

const KeyIdentity = "identity"

// Identity 会话守卫解析出的身份；匿名时为 nil
func Identity(c *gin.Context) *domain.Identity {
	if v, ok := c.Get(KeyIdentity); ok {
		if id, ok := v.(*domain.Identity); ok {
			return id
		}
	}
	return nil
}
