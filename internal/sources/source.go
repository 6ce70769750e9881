// Package sources models vaults: independently owned file trees identified
// by a stable URL. Local vaults are directories this process may write;
// remote vaults are read-only handles for followed peers.
package sources

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

var (
	// ErrReadOnly is returned when writing to a vault this process does not own.
	ErrReadOnly = errors.New("vault is read-only")
	// ErrUnavailable is returned when a vault's files cannot be reached from here.
	ErrUnavailable = errors.New("vault content is not available locally")
)

// Meta is the configurable part of a vault's self-description.
type Meta struct {
	Title       *string
	Description *string
}

// Source is one vault.
type Source interface {
	URL() string
	Writable() bool
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte) error
	RemoveFile(ctx context.Context, name string) error
	Mkdir(ctx context.Context, name string) error
	// ReadDir lists the file names directly under dir.
	ReadDir(ctx context.Context, dir string) ([]string, error)
	Configure(ctx context.Context, meta Meta) error
	Info(ctx context.Context) (domain.VaultInfo, error)
}
