package handler

import (
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
)

// ETag returns a strong entity tag for body.
func ETag(body []byte) string {
	h1, h2 := murmur3.Sum128(body)
	return fmt.Sprintf(`"%016x%016x"`, h1, h2)
}

// MatchesETag reports whether an If-None-Match header value matches tag.
// Comparison is weak: a W/ prefix on either side is ignored.
func MatchesETag(header, tag string) bool {
	if header == "" {
		return false
	}
	tag = strings.TrimPrefix(tag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}
