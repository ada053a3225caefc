package logger

import (
	"regexp"
	"strings"
)

// Sensitive field patterns to filter from logs
var (
	bearerPattern      = regexp.MustCompile(`(?i)(bearer)\s+[^\s"',]+`)
	accessTokenPattern = regexp.MustCompile(`(/access-token/)[^/\s"'?:]+`)
	tokenPattern       = regexp.MustCompile(`(?i)(token|jwt)[\s:=]+[^\s]+`)
	apiKeyPattern      = regexp.MustCompile(`(?i)(api[_-]?key|apikey)[\s:=]+[^\s]+`)
	secretPattern      = regexp.MustCompile(`(?i)(secret|password|private[_-]?key)[\s:=]+[^\s]+`)
)

const redactedPlaceholder = "[REDACTED]"

// SanitizeLogMessage removes credentials from log messages
func SanitizeLogMessage(message string) string {
	// Redact Authorization header values
	message = bearerPattern.ReplaceAllString(message, "${1} "+redactedPlaceholder)

	// Redact tokens embedded in identity service paths
	message = accessTokenPattern.ReplaceAllString(message, "${1}"+redactedPlaceholder)

	message = tokenPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = apiKeyPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = secretPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)

	return message
}

// SanitizeMap removes sensitive keys from a map
func SanitizeMap(data map[string]any) map[string]any {
	sensitiveKeys := []string{
		"authorization", "bearer",
		"token", "jwt",
		"api_key", "apikey", "api-key",
		"secret", "password", "private_key", "private-key",
	}

	sanitized := make(map[string]any, len(data))
	for k, v := range data {
		lowerKey := strings.ToLower(k)
		isSensitive := false

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(lowerKey, sensitiveKey) {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			sanitized[k] = redactedPlaceholder
		} else if s, ok := v.(string); ok {
			sanitized[k] = SanitizeLogMessage(s)
		} else {
			sanitized[k] = v
		}
	}

	return sanitized
}
