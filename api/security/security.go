// Package security implements the input guards that run before a request
// reaches the core: length validation, prompt injection detection and
// message sanitization. All functions are pure; the HTTP layer decides
// what status code a violation maps to.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// 输入长度上限
const (
	MaxMessageLength     = 500 // 单条聊天消息最大字符数
	MaxHistoryLength     = 20  // 历史消息最大条数
	MaxSearchTopicLength = 100 // 搜索主题最大字符数
)

// injectionPatterns 提示注入检测模式。
// 覆盖常见的 "ignore previous instructions" 一类的改写变体。
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|above|prior)\s+(instructions?|rules?|prompts?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|above|prior)`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|above|prior|your)\s+(instructions?|rules?|prompts?)`),
	regexp.MustCompile(`(?i)new\s+persona|new\s+identity`),
	regexp.MustCompile(`(?i)system\s*:\s*`),
	regexp.MustCompile(`(?i)\[system\]`),
	regexp.MustCompile(`(?i)<\s*system\s*>`),
	regexp.MustCompile(`(?i)reveal\s+(your|the|system)\s+(prompt|instructions|rules)`),
	regexp.MustCompile(`(?i)show\s+me\s+(your|the)\s+(prompt|instructions|system)`),
	regexp.MustCompile(`(?i)what\s+(are|is)\s+your\s+(system|original|initial)\s+(prompt|instructions)`),
	regexp.MustCompile(`(?i)repeat\s+(your|the)\s+(system|initial)\s+prompt`),
	regexp.MustCompile(`(?i)output\s+(your|the)\s+(system|initial)\s+(prompt|instructions)`),
	regexp.MustCompile(`(?i)print\s+(your|the)\s+(system|initial)\s+(prompt|instructions)`),
}

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// ValidateChatInput 校验聊天消息长度和历史条数
func ValidateChatInput(message string, historyLength int) error {
	if len(message) > MaxMessageLength {
		return fmt.Errorf("Message too long! Maximum %d characters.", MaxMessageLength)
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("Message cannot be empty.")
	}
	if historyLength > MaxHistoryLength {
		return fmt.Errorf("Conversation too long! Maximum %d messages. Please start a new chat.", MaxHistoryLength)
	}
	return nil
}

// ValidateSearchInput 校验搜索主题
func ValidateSearchInput(topic string) error {
	if len(topic) > MaxSearchTopicLength {
		return fmt.Errorf("Search topic too long! Maximum %d characters.", MaxSearchTopicLength)
	}
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("Search topic cannot be empty.")
	}
	return nil
}

// CheckPromptInjection 检测消息中是否包含提示注入尝试
func CheckPromptInjection(message string) bool {
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(message) {
			return true
		}
	}
	return false
}

// SanitizeMessage 清理用户消息：去除控制字符并压缩空白
func SanitizeMessage(message string) string {
	message = controlChars.ReplaceAllString(message, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(message, " "))
}
