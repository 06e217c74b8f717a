package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/samber/lo"

	"reel/internal/config"
)

// Requirement defines an external binary reel may execute.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// Requirements lists the binaries cfg points at. ffprobe is optional: a
// timeline made only of stills never probes.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "ffprobe",
			Command:     cfg.Media.FFprobeBinary,
			Description: "Probes video entries for dimensions and frame timestamps",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	return lo.Map(requirements, func(req Requirement, _ int) Status {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		status := Status{Requirement: req}
		if req.Command == "" {
			status.Detail = "command not configured"
			return status
		}
		path, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			return status
		}
		status.Available = true
		status.Path = path
		return status
	})
}

// MissingRequired returns the unavailable requirements that are not optional.
func MissingRequired(statuses []Status) []Status {
	return lo.Filter(statuses, func(s Status, _ int) bool {
		return !s.Available && !s.Optional
	})
}
