package security

import (
	"strings"
)

// PIIDetector flags questions that ask for personally identifiable
// information. The warehouse holds hashed profile data only, so a question
// asking for raw emails or phone numbers can never be answered and is
// rejected before generation.
type PIIDetector struct {
	keywords []string
}

// DefaultPIIKeywords cover the direct identifiers a marketing user is most
// likely to ask for.
var DefaultPIIKeywords = []string{
	"email address", "phone number", "home address", "street address",
	"credit card", "card number", "social security", "ssn",
	"date of birth", "passport", "ip address",
}

func NewPIIDetector(keywords []string) *PIIDetector {
	if len(keywords) == 0 {
		keywords = DefaultPIIKeywords
	}
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}
	return &PIIDetector{keywords: lower}
}

// Detect returns true and the matched keyword if the text requests PII.
func (d *PIIDetector) Detect(text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true, kw
		}
	}
	return false, ""
}
