// Package language holds the fixed set of caption languages accepted by the
// HTTP surface and the recognizer configuration.
package language

import (
	"fmt"
	"strings"

	xlang "golang.org/x/text/language"
)

type entry struct {
	code    string
	display string
}

var supported = []entry{
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"nl", "Dutch"},
	{"ru", "Russian"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"zh", "Chinese"},
	{"ar", "Arabic"},
	{"hi", "Hindi"},
}

var byCode = func() map[string]entry {
	m := make(map[string]entry, len(supported))
	for _, e := range supported {
		m[e.code] = e
	}
	return m
}()

// Normalize maps a BCP 47 tag or ISO 639 code ("en-US", "eng", "zh-Hant")
// to the two-letter code of a supported language. Empty input yields "".
func Normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return "", fmt.Errorf("unknown language %q", code)
	}
	base, _ := tag.Base()
	if _, ok := byCode[base.String()]; !ok {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	return base.String(), nil
}

// Display returns the English name of a supported code.
func Display(code string) string {
	if e, ok := byCode[code]; ok {
		return e.display
	}
	return code
}

// Codes lists supported codes in declaration order.
func Codes() []string {
	out := make([]string, 0, len(supported))
	for _, e := range supported {
		out = append(out, e.code)
	}
	return out
}
