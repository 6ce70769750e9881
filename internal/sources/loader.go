package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

// VaultsConfig is the vaults file: the local vaults this instance owns.
type VaultsConfig struct {
	Vaults []VaultConfig `yaml:"vaults"`
}

// VaultConfig describes one local vault.
type VaultConfig struct {
	URL         string   `yaml:"url"`
	Path        string   `yaml:"path"`
	Title       string   `yaml:"title,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Type        []string `yaml:"type,omitempty"`
}

// Loader reads a vaults file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and validates the vaults file. ${VAR} references are expanded
// from the environment before parsing.
func (l *Loader) Load() (VaultsConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return VaultsConfig{}, fmt.Errorf("failed to read vaults file: %w", err)
	}

	var cfg VaultsConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return VaultsConfig{}, fmt.Errorf("failed to parse vaults yaml: %w", err)
	}

	seen := make(map[string]struct{}, len(cfg.Vaults))
	for i, v := range cfg.Vaults {
		if v.URL == "" || v.Path == "" {
			return VaultsConfig{}, fmt.Errorf("vault #%d: url and path are required", i+1)
		}
		u, err := domain.VaultURL(domain.URL(v.URL))
		if err != nil {
			return VaultsConfig{}, fmt.Errorf("vault #%d: %w", i+1, err)
		}
		if _, dup := seen[u]; dup {
			return VaultsConfig{}, fmt.Errorf("vault #%d: %s listed twice", i+1, u)
		}
		seen[u] = struct{}{}
		cfg.Vaults[i].URL = u
	}
	return cfg, nil
}

// OpenAll opens every configured vault.
func (c VaultsConfig) OpenAll() ([]*LocalVault, error) {
	out := make([]*LocalVault, 0, len(c.Vaults))
	for _, v := range c.Vaults {
		lv, err := OpenLocal(v.Path, v.URL, domain.VaultInfo{
			Title:       v.Title,
			Description: v.Description,
			Type:        v.Type,
		})
		if err != nil {
			return nil, fmt.Errorf("open vault %s: %w", v.URL, err)
		}
		out = append(out, lv)
	}
	return out, nil
}
