package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external program the karaoke pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports whether a requirement resolved on PATH. Path holds the
// resolved executable when Available is set.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves each requirement. Requirements that share a command
// are looked up once.
func CheckBinaries(requirements []Requirement) []Status {
	resolved := make(map[string]lookup, len(requirements))
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if status.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		found, ok := resolved[status.Command]
		if !ok {
			found.path, found.err = exec.LookPath(status.Command)
			resolved[status.Command] = found
		}
		if found.err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		} else {
			status.Available = true
			status.Path = found.path
		}
		results = append(results, status)
	}
	return results
}

type lookup struct {
	path string
	err  error
}

// MissingRequired lists the names of required dependencies that are not
// available.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
