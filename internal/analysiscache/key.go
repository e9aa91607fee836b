// Package analysiscache holds analysis results keyed by the code and the
// provider settings that produced them.
package analysiscache

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// HashCode is a 32-bit rolling hash (h*31 + c over UTF-16 code units, with
// int32 wraparound) rendered as the base-36 absolute value. Collisions are
// possible and accepted.
func HashCode(s string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// Key combines the code hash with the settings that shape the answer. The base
// URL only contributes when set so local and hosted endpoints do not collide.
func Key(code, language, provider, model, baseURL string) string {
	var b strings.Builder
	b.WriteString(HashCode(code))
	b.WriteByte('_')
	b.WriteString(language)
	b.WriteByte('_')
	b.WriteString(provider)
	b.WriteByte('_')
	b.WriteString(model)
	if baseURL != "" {
		b.WriteByte('_')
		b.WriteString(HashCode(baseURL))
	}
	return b.String()
}
