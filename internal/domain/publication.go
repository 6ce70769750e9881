package domain

import "context"

// VaultPublication is a vault announcing another vault.
type VaultPublication struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        []string `json:"type,omitempty"`
	CreatedAt   int64    `json:"createdAt"`
}

// VaultInfo is the self-description a vault exposes.
type VaultInfo struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Type        []string `json:"type" yaml:"type"`
}

// InfoProvider is implemented by handles that can describe themselves.
// Publishing such a handle copies its info into the record.
type InfoProvider interface {
	Info(ctx context.Context) (VaultInfo, error)
}

// PublicationInput announces Vault. Explicit fields win over the info
// fetched from an InfoProvider handle.
type PublicationInput struct {
	Vault       Ref      `json:"-" validate:"required"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        []string `json:"type"`
	CreatedAt   int64    `json:"createdAt" validate:"gte=0"`
}
