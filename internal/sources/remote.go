package sources

import (
	"context"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

// Remote is a followed vault known only by its URL. Its records reach the
// index through whatever replicates them; this process never writes to it.
type Remote struct {
	url string
}

var _ Source = (*Remote)(nil)

// NewRemote returns a handle for url.
func NewRemote(url string) (*Remote, error) {
	canon, err := domain.VaultURL(domain.URL(url))
	if err != nil {
		return nil, err
	}
	return &Remote{url: canon}, nil
}

func (r *Remote) URL() string    { return r.url }
func (r *Remote) Writable() bool { return false }

func (r *Remote) ReadFile(context.Context, string) ([]byte, error)  { return nil, ErrUnavailable }
func (r *Remote) ReadDir(context.Context, string) ([]string, error) { return nil, ErrUnavailable }
func (r *Remote) WriteFile(context.Context, string, []byte) error   { return ErrReadOnly }
func (r *Remote) RemoveFile(context.Context, string) error          { return ErrReadOnly }
func (r *Remote) Mkdir(context.Context, string) error               { return ErrReadOnly }
func (r *Remote) Configure(context.Context, Meta) error             { return ErrReadOnly }
func (r *Remote) Info(context.Context) (domain.VaultInfo, error)    { return domain.VaultInfo{}, nil }
