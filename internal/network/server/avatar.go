package server

import (
	"math/rand"
)

// 头像词库
var avatars = []string{
	"🦊", "🐱", "🐶", "🐭", "🐹",
	"🐰", "🐻", "🐼", "🐨", "🐯",
	"🦁", "🐮", "🐷", "🐸", "🐵",
	"🐔", "🐧", "🐦", "🐤", "🐣",
}

// GenerateAvatar 随机分配一个头像
func GenerateAvatar() string {
	return avatars[rand.Intn(len(avatars))]
}
