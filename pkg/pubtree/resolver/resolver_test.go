package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pubtree/pubtree/pkg/pubtree/types"
)

func TestParseSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Spec
		wantErr bool
	}{
		{name: "bare name", input: "left-pad", want: Spec{Name: "left-pad"}},
		{name: "name with constraint", input: "left-pad@^1.3.0", want: Spec{Name: "left-pad", Constraint: "^1.3.0"}},
		{name: "scoped name", input: "@acme/assets", want: Spec{Name: "@acme/assets"}},
		{name: "scoped name with constraint", input: "@acme/assets@~2.0.0", want: Spec{Name: "@acme/assets", Constraint: "~2.0.0"}},
		{name: "exact pin", input: "pkg@1.2.3", want: Spec{Name: "pkg", Constraint: "1.2.3"}},
		{name: "whitespace trimmed", input: "  pkg  ", want: Spec{Name: "pkg"}},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSpec(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSpec(%q) error = nil, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSpec(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSpec(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSpec_String(t *testing.T) {
	t.Parallel()

	if got := (Spec{Name: "pkg"}).String(); got != "pkg" {
		t.Errorf("String() = %q, want pkg", got)
	}
	if got := (Spec{Name: "@acme/assets", Constraint: "^1.0.0"}).String(); got != "@acme/assets@^1.0.0" {
		t.Errorf("String() = %q, want @acme/assets@^1.0.0", got)
	}
}

func TestParseManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Manager
		wantErr bool
	}{
		{input: "", want: ManagerAuto},
		{input: "auto", want: ManagerAuto},
		{input: "npm", want: ManagerNpm},
		{input: "pnpm", want: ManagerPnpm},
		{input: "yarn", want: ManagerYarn},
		{input: "bun", want: ManagerBun},
		{input: "cargo", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseManager(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseManager(%q) error = nil, want error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseManager(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseManager(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lockfile string
		want     Manager
	}{
		{name: "pnpm", lockfile: "pnpm-lock.yaml", want: ManagerPnpm},
		{name: "yarn", lockfile: "yarn.lock", want: ManagerYarn},
		{name: "bun binary lock", lockfile: "bun.lockb", want: ManagerBun},
		{name: "bun text lock", lockfile: "bun.lock", want: ManagerBun},
		{name: "npm", lockfile: "package-lock.json", want: ManagerNpm},
		{name: "no lockfile defaults to npm", lockfile: "", want: ManagerNpm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if tt.lockfile != "" {
				if err := os.WriteFile(filepath.Join(dir, tt.lockfile), nil, 0o644); err != nil {
					t.Fatalf("WriteFile() error = %v", err)
				}
			}
			if got := Detect(dir); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("pnpm wins over npm", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		for _, lf := range []string{"pnpm-lock.yaml", "package-lock.json"} {
			if err := os.WriteFile(filepath.Join(dir, lf), nil, 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
		}
		if got := Detect(dir); got != ManagerPnpm {
			t.Errorf("Detect() = %v, want ManagerPnpm", got)
		}
	})
}

func TestManager_InstallArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		manager Manager
		first   string
	}{
		{ManagerNpm, "install"},
		{ManagerPnpm, "add"},
		{ManagerYarn, "add"},
		{ManagerBun, "add"},
	}

	for _, tt := range tests {
		args := tt.manager.installArgs("pkg@1.0.0")
		if len(args) != 2 || args[0] != tt.first || args[1] != "pkg@1.0.0" {
			t.Errorf("%v.installArgs() = %v, want [%s pkg@1.0.0]", tt.manager, args, tt.first)
		}
	}
}

// installPackage plants a fake installed package under cwd/node_modules.
func installPackage(t *testing.T, cwd, name, version string) string {
	t.Helper()
	root := filepath.Join(cwd, "node_modules", filepath.FromSlash(name))
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	manifest := `{"name": "` + name + `", "version": "` + version + `"}`
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return root
}

func TestResolver_Locate(t *testing.T) {
	t.Parallel()

	t.Run("finds installed package", func(t *testing.T) {
		t.Parallel()
		cwd := t.TempDir()
		root := installPackage(t, cwd, "left-pad", "1.3.0")

		r := New(cwd, ManagerNpm)
		inst, err := r.Locate("left-pad")
		if err != nil {
			t.Fatalf("Locate() error = %v", err)
		}
		if inst.Name != "left-pad" || inst.Version != "1.3.0" || inst.Root != root {
			t.Errorf("Locate() = %+v", inst)
		}
	})

	t.Run("finds scoped package", func(t *testing.T) {
		t.Parallel()
		cwd := t.TempDir()
		installPackage(t, cwd, "@acme/assets", "2.1.0")

		r := New(cwd, ManagerNpm)
		inst, err := r.Locate("@acme/assets")
		if err != nil {
			t.Fatalf("Locate() error = %v", err)
		}
		if inst.Version != "2.1.0" {
			t.Errorf("Version = %q, want 2.1.0", inst.Version)
		}
	})

	t.Run("missing package returns sentinel", func(t *testing.T) {
		t.Parallel()
		r := New(t.TempDir(), ManagerNpm)

		_, err := r.Locate("ghost")
		if !errors.Is(err, types.ErrPackageNotInstalled) {
			t.Errorf("Locate() error = %v, want ErrPackageNotInstalled", err)
		}
	})

	t.Run("manifest without version returns sentinel", func(t *testing.T) {
		t.Parallel()
		cwd := t.TempDir()
		root := filepath.Join(cwd, "node_modules", "broken")
		if err := os.MkdirAll(root, 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name": "broken"}`), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		r := New(cwd, ManagerNpm)
		_, err := r.Locate("broken")
		if !errors.Is(err, types.ErrPackageNotInstalled) {
			t.Errorf("Locate() error = %v, want ErrPackageNotInstalled", err)
		}
	})
}

func TestNew_ResolvesAuto(t *testing.T) {
	t.Parallel()

	cwd := t.TempDir()
	if err := os.WriteFile(filepath.Join(cwd, "yarn.lock"), nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	r := New(cwd, ManagerAuto)
	if r.Manager() != ManagerYarn {
		t.Errorf("Manager() = %v, want ManagerYarn", r.Manager())
	}
}
