package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dustin/go-humanize"
)

// Requirement defines an external binary or file capburn relies on.
type Requirement struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command,omitempty"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Check evaluates the provided requirements and reports availability.
// Commands are resolved on PATH; paths must be regular files.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Path:        strings.TrimSpace(req.Path),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case status.Command != "":
			resolved, err := exec.LookPath(status.Command)
			if err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", status.Command)
				break
			}
			status.Available = true
			status.Detail = resolved
		case status.Path != "":
			fi, err := os.Stat(status.Path)
			if err != nil {
				status.Detail = fmt.Sprintf("file %q not found", status.Path)
				break
			}
			if !fi.Mode().IsRegular() {
				status.Detail = fmt.Sprintf("%q is not a regular file", status.Path)
				break
			}
			status.Available = true
			status.Detail = humanize.Bytes(uint64(fi.Size()))
		default:
			status.Detail = "not configured"
		}
		results = append(results, status)
	}
	return results
}

// Ready reports whether every non-optional requirement is available.
func Ready(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			return false
		}
	}
	return true
}
