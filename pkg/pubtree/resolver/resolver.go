package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pubtree/pubtree/pkg/pubtree/logging"
	"github.com/pubtree/pubtree/pkg/pubtree/semver"
	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

// Installed describes a resolved package: its name, the version found in the
// project, and the root directory of its installed file tree.
type Installed struct {
	Name    string
	Version string
	Root    string
}

// Resolver locates and installs packages within one consumer project.
type Resolver struct {
	cwd     string
	manager Manager
	log     *logging.Logger
}

// New creates a Resolver for the project at cwd. ManagerAuto is resolved by
// lockfile detection immediately, so callers always see a concrete manager.
func New(cwd string, manager Manager) *Resolver {
	if manager == ManagerAuto {
		manager = Detect(cwd)
	}
	return &Resolver{
		cwd:     cwd,
		manager: manager,
		log:     logging.Get("resolver"),
	}
}

// Manager returns the concrete package manager in use.
func (r *Resolver) Manager() Manager { return r.manager }

// packageManifest is the subset of package.json the resolver reads.
type packageManifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Locate finds an already-installed package under node_modules without
// invoking the package manager. It returns ErrPackageNotInstalled when the
// package directory or its package.json is absent.
func (r *Resolver) Locate(name string) (*Installed, error) {
	root := filepath.Join(r.cwd, "node_modules", filepath.FromSlash(name))
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrPackageNotInstalled, name)
		}
		return nil, fmt.Errorf("reading manifest for %s: %w", name, err)
	}

	var pm packageManifest
	if err := json.Unmarshal(data, &pm); err != nil {
		return nil, fmt.Errorf("parsing manifest for %s: %w", name, err)
	}
	if pm.Version == "" {
		return nil, fmt.Errorf("%w: %s has no version", types.ErrPackageNotInstalled, name)
	}

	return &Installed{Name: name, Version: pm.Version, Root: root}, nil
}

// Resolve returns an installed copy of spec, installing or upgrading through
// the package manager when the package is absent, the installed version does
// not satisfy the constraint, or upgrade is requested.
func (r *Resolver) Resolve(ctx context.Context, spec Spec, upgrade bool) (*Installed, error) {
	inst, err := r.Locate(spec.Name)
	if err == nil && !upgrade {
		ok, verr := semver.Satisfies(inst.Version, spec.Constraint)
		if verr != nil {
			return nil, fmt.Errorf("checking constraint for %s: %w", spec.Name, verr)
		}
		if ok {
			return inst, nil
		}
		r.log.Info("installed version does not satisfy constraint",
			"package", spec.Name, "installed", inst.Version, "constraint", spec.Constraint)
	}

	if err := r.install(ctx, spec); err != nil {
		return nil, err
	}

	inst, err = r.Locate(spec.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (install did not produce it)", types.ErrPackageNotInstalled, spec.Name)
	}

	ok, verr := semver.Satisfies(inst.Version, spec.Constraint)
	if verr != nil {
		return nil, fmt.Errorf("checking constraint for %s: %w", spec.Name, verr)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s does not satisfy %s",
			types.ErrPackageNotInstalled, spec.Name, inst.Version, spec.Constraint)
	}

	return inst, nil
}

// install runs the package manager subprocess for one spec.
func (r *Resolver) install(ctx context.Context, spec Spec) error {
	args := r.manager.installArgs(spec.String())
	r.log.Info("installing package", "manager", r.manager.String(), "spec", spec.String())

	cmd := exec.CommandContext(ctx, r.manager.String(), args...)
	cmd.Dir = r.cwd
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s (%s %v failed: %v: %s)",
			types.ErrPackageNotInstalled, spec.Name, r.manager, args, err, firstLine(out))
	}
	return nil
}

// firstLine trims subprocess output to its first line for error messages.
func firstLine(out []byte) string {
	for i, b := range out {
		if b == '\n' {
			return string(out[:i])
		}
	}
	return string(out)
}
