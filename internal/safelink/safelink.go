// Package safelink decodes Microsoft Defender for Office 365 "Safe Links"
// redirect URLs back into the destination they wrap.
//
// A SafeLink looks like
//
//	https://eur01.safelinks.protection.outlook.com/?url=https%3A%2F%2Fexample.com&data=...
//
// and carries the original URL percent-encoded in its "url" query parameter.
package safelink

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPrefixes are the regional SafeLinks endpoints recognised when no
// prefix list is configured.
var DefaultPrefixes = []string{
	"https://gbr01.safelinks.protection.outlook.com/",
	"https://eur01.safelinks.protection.outlook.com/",
	"https://nam02.safelinks.protection.outlook.com/",
}

// Decode extracts the original URL from a SafeLink. It reports false when the
// input is not a URL or has no non-empty "url" query parameter. Decode never
// checks the host; use a Matcher for that.
func Decode(input string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return "", false
	}
	target := firstParam(u.RawQuery, "url")
	if target == "" {
		return "", false
	}
	return target, true
}

// firstParam returns the first non-empty value of key in a form-encoded
// query. Pairs are split on "&" only, so ";" stays part of a value. Pairs
// without "=" are skipped.
func firstParam(query, key string) string {
	for query != "" {
		var pair string
		pair, query, _ = strings.Cut(query, "&")
		k, v, ok := strings.Cut(pair, "=")
		if !ok || unescape(k) != key {
			continue
		}
		if v = unescape(v); v != "" {
			return v
		}
	}
	return ""
}

// unescape decodes "+" and %XX escapes. Malformed escapes are kept verbatim.
func unescape(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '+' {
			b.WriteByte(' ')
			continue
		}
		if c == '%' && i+2 < len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(n))
				i += 2
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Matcher recognises SafeLink-shaped strings by prefix.
type Matcher struct {
	prefixes []string
}

// NewMatcher returns a Matcher for the given prefixes, or for DefaultPrefixes
// if none are given. Bare hosts are expanded to "https://<host>/".
func NewMatcher(prefixes []string) *Matcher {
	var out []string
	for _, p := range prefixes {
		p = normalizePrefix(p)
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		out = slices.Clone(DefaultPrefixes)
	}
	return &Matcher{prefixes: out}
}

// Match reports whether s starts with one of the matcher's prefixes.
func (m *Matcher) Match(s string) bool {
	for _, p := range m.prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Prefixes returns a copy of the normalised prefix list.
func (m *Matcher) Prefixes() []string {
	return slices.Clone(m.prefixes)
}

func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !strings.Contains(p, "://") {
		p = "https://" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
