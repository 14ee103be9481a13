// Package redact маскирует чувствительные значения перед логированием.
package redact

import "strings"

// Email оставляет первые два символа локальной части и домен: "us***@host".
func Email(s string) string {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return "***"
	}

	local, domain := s[:at], s[at+1:]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
