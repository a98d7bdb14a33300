package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 生成 32 位无横杠 ID
func NewID() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }

// NewToken 生成不透明令牌（刷新令牌、重置密码令牌）
func NewToken() string { return uuid.NewString() + uuid.NewString()[:8] }
