package subtitles

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/forPelevin/capburn/internal/types"
)

var assColour = regexp.MustCompile(`^&H[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)

// ValidColour reports whether c is an ASS colour literal (&HBBGGRR or &HAABBGGRR).
func ValidColour(c string) bool {
	return assColour.MatchString(c)
}

// ForceStyle renders s as the override list passed to the subtitles filter's
// force_style option. Zero fields are left to the renderer's defaults.
func ForceStyle(s types.Style) string {
	var parts []string
	if s.FontSize > 0 {
		parts = append(parts, "FontSize="+strconv.Itoa(s.FontSize))
	}
	if c := strings.TrimSpace(s.PrimaryColour); c != "" {
		parts = append(parts, "PrimaryColour="+c)
	}
	if c := strings.TrimSpace(s.OutlineColour); c != "" {
		parts = append(parts, "OutlineColour="+c)
	}
	if s.BorderStyle > 0 {
		parts = append(parts, "BorderStyle="+strconv.Itoa(s.BorderStyle))
	}
	return strings.Join(parts, ",")
}
