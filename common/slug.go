package common

import (
	"fmt"
	"strings"
	"unicode"
)

// Slugify converts input into a URL-safe slug: lowercase, hyphen-separated,
// ASCII letters and digits only. If nothing usable remains, fallback is used.
func Slugify(input, fallback string) (string, error) {
	var b strings.Builder
	lastHyphen := true

	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		if fallback == "" {
			return "", fmt.Errorf("cannot build slug from %q", input)
		}
		slug = fallback
	}
	if len(slug) > 100 {
		slug = strings.Trim(slug[:100], "-")
	}
	return slug, nil
}
