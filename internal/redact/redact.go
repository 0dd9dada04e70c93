// Package redact scrubs credentials and internal details from error text
// before it reaches a log line or an HTTP response.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	Placeholder           = "[REDACTED]"
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	StackPlaceholder      = "[REDACTED_STACK]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules run in order. Later rules see the output of earlier ones, so the
// broad patterns come last.
var rules = []rule{
	{
		// Everything after the start of a panic or goroutine dump.
		pattern:     regexp.MustCompile(`(?:panic: |goroutine \d+ \[)[\s\S]*`),
		replacement: StackPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(postgres(?:ql)?|redis|rediss)://[^@\s]+@`),
		replacement: "${1}://" + CredentialPlaceholder + "@",
	},
	{
		pattern:     regexp.MustCompile(`eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`),
		replacement: JWTPlaceholder,
	},
	{
		// Payment provider API keys and webhook signing secrets.
		pattern:     regexp.MustCompile(`\b(?:(?:sk|rk)_(?:live|test)|whsec)_[A-Za-z0-9]{8,}`),
		replacement: KeyPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(stripe-signature|authorization)\s*[:=]\s*[^\r\n]+`),
		replacement: "${1}: " + CredentialPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)(password|passwd|secret|api[_-]?key|token)(\s*[=:]\s*)['"]?[^\s'"&,;]{3,}['"]?`),
		replacement: "${1}${2}" + Placeholder,
	},
	{
		pattern:     regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		replacement: EmailPlaceholder,
	},
	{
		// Uppercase statements only; "failed to delete session" is not SQL.
		pattern:     regexp.MustCompile(`\b(?:SELECT|INSERT INTO|UPDATE|DELETE FROM)\b[^;\n]*`),
		replacement: SQLPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?:/[\w.-]+){2,}`),
		replacement: PathPlaceholder,
	},
}

// String returns s with every sensitive fragment replaced.
func String(s string) string {
	if s == "" {
		return s
	}
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

// Error redacts err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
