package llm

import "regexp"

var (
	keyPattern = regexp.MustCompile(`key=[A-Za-z0-9_-]+`)
	urlPattern = regexp.MustCompile(`https?://\S+`)
)

// SanitizeError 在错误消息离开系统之前去除凭据与原始端点 URL。
// 所有会到达客户端的错误文本都必须先经过此函数。
func SanitizeError(msg string) string {
	msg = keyPattern.ReplaceAllString(msg, "key=***")
	msg = urlPattern.ReplaceAllString(msg, "[API endpoint]")
	return msg
}
