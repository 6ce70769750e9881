package sources

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "vaults.yaml")

	yamlContent := `---
vaults:
  - url: https://alice.example/
    path: ` + filepath.Join(tmpDir, "alice") + `
    title: Alice
    type: [user]
`

	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	cfg, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Vaults) != 1 {
		t.Fatalf("Load() returned %d vaults, want 1", len(cfg.Vaults))
	}
	if got := cfg.Vaults[0].URL; got != "https://alice.example" {
		t.Errorf("Load() url = %q, want trailing slash trimmed", got)
	}

	vaults, err := cfg.OpenAll()
	if err != nil {
		t.Fatalf("OpenAll() error = %v", err)
	}
	if vaults[0].URL() != "https://alice.example" {
		t.Errorf("OpenAll() url = %q", vaults[0].URL())
	}
}

func TestLoaderExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "vaults.yaml")
	t.Setenv("VAULT_ROOT", tmpDir)

	yamlContent := `vaults:
  - url: https://bob.example
    path: ${VAULT_ROOT}/bob
`
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	cfg, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := tmpDir + "/bob"; cfg.Vaults[0].Path != want {
		t.Errorf("Load() path = %q, want %q", cfg.Vaults[0].Path, want)
	}
}

func TestLoaderRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing path", yaml: "vaults:\n  - url: https://a.example\n"},
		{name: "missing url", yaml: "vaults:\n  - path: /tmp/a\n"},
		{name: "duplicate", yaml: "vaults:\n  - url: https://a.example\n    path: /tmp/a\n  - url: https://a.example/\n    path: /tmp/b\n"},
		{name: "not yaml", yaml: "vaults: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "vaults.yaml")
			if err := os.WriteFile(p, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewLoader(p).Load(); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/vaults.yaml")
	if _, err := loader.Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}
