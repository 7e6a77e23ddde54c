package logger

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	// NHS numbers are ten digits, optionally grouped 3-3-4.
	nhsRegex   = regexp.MustCompile(`\b\d{3}[ -]?\d{3}[ -]?\d{4}\b`)
	phoneRegex = regexp.MustCompile(`\b(?:\+44|0)\d[\d ]{8,12}\d\b`)
)

// redactValue masks PII in a field value based on the field key and on
// patterns embedded in the value itself.
func redactValue(key, val string) string {
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "email"):
		return RedactEmail(val)
	case strings.Contains(k, "nhs"):
		return RedactDigits(val)
	case strings.Contains(k, "phone") || strings.Contains(k, "mobile") || strings.Contains(k, "telephone"):
		return RedactDigits(val)
	case strings.Contains(k, "name") || strings.Contains(k, "forename") || strings.Contains(k, "surname"):
		return RedactName(val)
	}
	val = emailRegex.ReplaceAllStringFunc(val, RedactEmail)
	val = nhsRegex.ReplaceAllStringFunc(val, RedactDigits)
	val = phoneRegex.ReplaceAllStringFunc(val, RedactDigits)
	return val
}

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactDigits masks a numeric identifier keeping only the last two digits:
// "485 777 3456" → "********56".
func RedactDigits(s string) string {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits <= 2 {
		return "**"
	}
	trimmed := strings.NewReplacer(" ", "", "-", "").Replace(s)
	return strings.Repeat("*", len(trimmed)-2) + trimmed[len(trimmed)-2:]
}

// RedactName keeps the first letter of a personal name: "Smith" → "S***".
func RedactName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return s[:1] + "***"
}
