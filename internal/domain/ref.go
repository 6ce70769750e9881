package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Ref identifies a vault or a record. The set of variants is closed:
// URL, SourceRef and RecordRef.
type Ref interface{ ref() }

// URL is a raw string reference.
type URL string

// Handle is anything that exposes a stable vault URL, typically an opened
// source.
type Handle interface {
	URL() string
}

// SourceRef references a vault through its handle.
type SourceRef struct{ Handle Handle }

// RecordRef references a stored record by its full URL.
type RecordRef struct{ URL string }

func (URL) ref()       {}
func (SourceRef) ref() {}
func (RecordRef) ref() {}

// Source wraps a handle as a Ref.
func Source(h Handle) Ref { return SourceRef{Handle: h} }

// Record wraps a record URL as a Ref.
func Record(u string) Ref { return RecordRef{URL: u} }

// VaultURL normalizes a reference to the URL of the vault it designates.
// Record references resolve to the vault the record lives in.
func VaultURL(r Ref) (string, error) {
	switch v := r.(type) {
	case nil:
		return "", Invalid("vault", "reference is required")
	case URL:
		return canonicalVault(string(v))
	case SourceRef:
		if v.Handle == nil {
			return "", Invalid("vault", "source handle is nil")
		}
		return canonicalVault(v.Handle.URL())
	case RecordRef:
		return OriginOf(v.URL)
	default:
		return "", Invalid("vault", fmt.Sprintf("unsupported reference %T", r))
	}
}

// VaultURLs normalizes every reference, failing on the first bad one.
func VaultURLs(refs []Ref) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		u, err := VaultURL(r)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// RecordURL normalizes a reference to a record URL. A vault handle does not
// designate a record and is rejected.
func RecordURL(r Ref) (string, error) {
	switch v := r.(type) {
	case nil:
		return "", Invalid("record", "reference is required")
	case URL:
		return nonEmpty("record", string(v))
	case RecordRef:
		return nonEmpty("record", v.URL)
	case SourceRef:
		return "", Invalid("record", "a vault handle does not identify a record")
	default:
		return "", Invalid("record", fmt.Sprintf("unsupported reference %T", r))
	}
}

// SubjectURL normalizes the subject of a vote. Any variant is accepted and
// the result goes through NormalizeURL so lookups and writes agree.
func SubjectURL(r Ref) (string, error) {
	var raw string
	switch v := r.(type) {
	case nil:
		return "", Invalid("subject", "is required")
	case URL:
		raw = string(v)
	case RecordRef:
		raw = v.URL
	case SourceRef:
		if v.Handle == nil {
			return "", Invalid("subject", "source handle is nil")
		}
		raw = v.Handle.URL()
	default:
		return "", Invalid("subject", fmt.Sprintf("unsupported reference %T", r))
	}
	if strings.TrimSpace(raw) == "" {
		return "", Invalid("subject", "is required")
	}
	return NormalizeURL(raw)
}

// OriginOf returns the vault URL (scheme and host) a record URL lives under.
func OriginOf(recordURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(recordURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", Invalid("record", fmt.Sprintf("cannot derive vault from %q", recordURL))
	}
	return u.Scheme + "://" + u.Host, nil
}

func canonicalVault(s string) (string, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	return nonEmpty("vault", s)
}

func nonEmpty(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", Invalid(field, "must not be empty")
	}
	return s, nil
}
