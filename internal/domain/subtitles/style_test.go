package subtitles

import (
	"testing"

	"github.com/forPelevin/capburn/internal/types"
)

func TestForceStyle(t *testing.T) {
	got := ForceStyle(types.Style{
		FontSize:      24,
		PrimaryColour: "&H00FFFFFF",
		OutlineColour: "&H40000000",
		BorderStyle:   3,
	})
	want := "FontSize=24,PrimaryColour=&H00FFFFFF,OutlineColour=&H40000000,BorderStyle=3"
	if got != want {
		t.Fatalf("ForceStyle = %q, want %q", got, want)
	}
	if got := ForceStyle(types.Style{OutlineColour: "&H40000000", BorderStyle: 3}); got != "OutlineColour=&H40000000,BorderStyle=3" {
		t.Fatalf("zero fields should be skipped, got %q", got)
	}
}

func TestValidColour(t *testing.T) {
	for c, want := range map[string]bool{
		"&H00FFFFFF": true,
		"&HFFFFFF":   true,
		"&h00ffffff": false,
		"#FFFFFF":    false,
		"&H00FFFFF":  false,
		"":           false,
	} {
		if got := ValidColour(c); got != want {
			t.Fatalf("ValidColour(%q) = %v, want %v", c, got, want)
		}
	}
}
