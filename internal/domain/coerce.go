package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// maxSlugLen keeps file names well below common filesystem limits.
const maxSlugLen = 120

// NormalizeURL canonicalizes a URL so that equivalent spellings map to the
// same index key: lowercase scheme and host, default ports dropped,
// trailing slashes removed, query parameters sorted. Fragments are kept.
// A missing scheme defaults to http.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", Invalid("url", "must not be empty")
	}
	switch {
	case strings.HasPrefix(s, "//"):
		s = "http:" + s
	case !strings.Contains(s, "://"):
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", Invalid("url", fmt.Sprintf("cannot parse %q", raw))
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if p := u.Port(); (u.Scheme == "http" && p == "80") || (u.Scheme == "https" && p == "443") {
		u.Host = strings.TrimSuffix(u.Host, ":"+p)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(u.RawPath, "/")
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}
	return u.String(), nil
}

// Slug turns an arbitrary string (usually a URL) into a file-name-safe
// token. Every byte outside [A-Za-z0-9.-] is written as _XX with lowercase
// hex, so short slugs map back to exactly one input. Over-long slugs are cut
// and suffixed with _h plus a SHA-256 prefix of the input; an escape never
// produces "_h", so a cut slug cannot equal the slug of a short input.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '.', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	out := b.String()
	if len(out) <= maxSlugLen {
		return out
	}
	sum := sha256.Sum256([]byte(s))
	return out[:maxSlugLen-18] + "_h" + hex.EncodeToString(sum[:])[:16]
}

// VoteValue clamps any magnitude to -1, 0 or 1.
func VoteValue(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Tags trims every tag, drops empty ones and removes duplicates while
// keeping first-seen order.
func Tags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
