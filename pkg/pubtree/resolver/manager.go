// Package resolver locates installed packages in a consumer project and
// drives the package-manager subprocess when a package must be installed or
// upgraded. It is the only place pubtree touches a package manager.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
)

// Manager identifies the package manager driving installation.
type Manager int

// Supported package managers. ManagerAuto resolves by lockfile detection.
const (
	ManagerAuto Manager = iota
	ManagerNpm
	ManagerPnpm
	ManagerYarn
	ManagerBun
)

// String returns the command name for the manager.
func (m Manager) String() string {
	switch m {
	case ManagerNpm:
		return "npm"
	case ManagerPnpm:
		return "pnpm"
	case ManagerYarn:
		return "yarn"
	case ManagerBun:
		return "bun"
	case ManagerAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseManager parses a manager name. Empty and "auto" select detection.
func ParseManager(s string) (Manager, error) {
	switch s {
	case "", "auto":
		return ManagerAuto, nil
	case "npm":
		return ManagerNpm, nil
	case "pnpm":
		return ManagerPnpm, nil
	case "yarn":
		return ManagerYarn, nil
	case "bun":
		return ManagerBun, nil
	default:
		return ManagerAuto, fmt.Errorf("unknown package manager: %q", s)
	}
}

// lockfiles maps each manager to its lockfile, in detection precedence order.
var lockfiles = []struct {
	name    string
	manager Manager
}{
	{"pnpm-lock.yaml", ManagerPnpm},
	{"yarn.lock", ManagerYarn},
	{"bun.lockb", ManagerBun},
	{"bun.lock", ManagerBun},
	{"package-lock.json", ManagerNpm},
}

// Detect picks a manager by the lockfile present in dir, defaulting to npm.
func Detect(dir string) Manager {
	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, lf.name)); err == nil {
			return lf.manager
		}
	}
	return ManagerNpm
}

// installArgs returns the subprocess arguments to install spec in the project.
func (m Manager) installArgs(spec string) []string {
	switch m {
	case ManagerYarn:
		return []string{"add", spec}
	case ManagerBun:
		return []string{"add", spec}
	case ManagerPnpm:
		return []string{"add", spec}
	case ManagerNpm:
		return []string{"install", spec}
	default:
		return []string{"install", spec}
	}
}
