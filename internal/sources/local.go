package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

// ManifestFile holds a local vault's identity and description.
const ManifestFile = "vault.json"

type manifest struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        []string `json:"type,omitempty"`
}

// LocalVault is a vault stored in a directory on this machine.
type LocalVault struct {
	dir string
	url string

	mu   sync.Mutex // guards manifest writes
	info domain.VaultInfo
}

var _ Source = (*LocalVault)(nil)

// OpenLocal opens the vault in dir, creating the directory and its manifest
// when missing. url is required on first open; afterwards it must match the
// manifest when given.
func OpenLocal(dir, url string, info domain.VaultInfo) (*LocalVault, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vault directory %s: %w", dir, err)
	}

	var m manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Join(dir, ManifestFile), err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read vault manifest: %w", err)
	}

	if url != "" {
		canon, err := domain.VaultURL(domain.URL(url))
		if err != nil {
			return nil, err
		}
		if m.URL != "" && m.URL != canon {
			return nil, fmt.Errorf("vault %s is %s, not %s", dir, m.URL, canon)
		}
		m.URL = canon
	}
	if m.URL == "" {
		return nil, fmt.Errorf("vault %s has no url", dir)
	}

	v := &LocalVault{
		dir: dir,
		url: m.URL,
		info: domain.VaultInfo{
			Title:       m.Title,
			Description: m.Description,
			Type:        m.Type,
		},
	}
	if info.Title != "" && v.info.Title == "" {
		v.info.Title = info.Title
	}
	if info.Description != "" && v.info.Description == "" {
		v.info.Description = info.Description
	}
	if len(info.Type) > 0 && len(v.info.Type) == 0 {
		v.info.Type = info.Type
	}
	if err := v.saveManifest(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *LocalVault) URL() string    { return v.url }
func (v *LocalVault) Writable() bool { return true }

// Dir returns the directory backing the vault.
func (v *LocalVault) Dir() string { return v.dir }

// resolve maps a vault path to a file path, refusing anything that would
// leave the vault directory.
func (v *LocalVault) resolve(name string) (string, error) {
	rel := strings.TrimPrefix(filepath.ToSlash(name), "/")
	if rel == "" {
		return v.dir, nil
	}
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", domain.Invalid("path", fmt.Sprintf("%q escapes the vault", name))
	}
	return filepath.Join(v.dir, filepath.FromSlash(rel)), nil
}

func (v *LocalVault) ReadFile(_ context.Context, name string) ([]byte, error) {
	p, err := v.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// WriteFile writes through a temp file and rename so readers never see a
// partial record.
func (v *LocalVault) WriteFile(_ context.Context, name string, data []byte) error {
	p, err := v.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(p), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// RemoveFile deletes a file. A missing file is not an error.
func (v *LocalVault) RemoveFile(_ context.Context, name string) error {
	p, err := v.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Mkdir creates a directory. An existing directory is not an error.
func (v *LocalVault) Mkdir(_ context.Context, name string) error {
	p, err := v.resolve(name)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

func (v *LocalVault) ReadDir(_ context.Context, dir string) ([]string, error) {
	p, err := v.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Configure updates the manifest.
func (v *LocalVault) Configure(_ context.Context, meta Meta) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if meta.Title != nil {
		v.info.Title = *meta.Title
	}
	if meta.Description != nil {
		v.info.Description = *meta.Description
	}
	return v.saveManifestLocked()
}

func (v *LocalVault) Info(context.Context) (domain.VaultInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.info, nil
}

func (v *LocalVault) saveManifest() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.saveManifestLocked()
}

func (v *LocalVault) saveManifestLocked() error {
	data, err := json.MarshalIndent(manifest{
		URL:         v.url,
		Title:       v.info.Title,
		Description: v.info.Description,
		Type:        v.info.Type,
	}, "", "  ")
	if err != nil {
		return err
	}
	return v.WriteFile(context.Background(), ManifestFile, data)
}
