// Package urlutil holds host and domain helpers shared by the analyzers.
package urlutil

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// BareDomain reduces a website to its lowercase host with scheme, leading
// "www.", port, path and trailing dots removed. "https://www.Brand.com/fr"
// becomes "brand.com".
func BareDomain(website string) string {
	s := strings.TrimSpace(strings.ToLower(website))
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s[i:], "]") {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	return strings.TrimPrefix(s, "www.")
}

// Host extracts the bare host of an absolute URL. It returns "" when the
// URL cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return BareDomain(u.Hostname())
}

// HostMatches reports whether host and target name the same site, allowing
// either side to be a subdomain of the other ("blog.brand.com" matches
// "brand.com" and vice versa).
func HostMatches(host, target string) bool {
	host = BareDomain(host)
	target = BareDomain(target)
	if host == "" || target == "" {
		return false
	}
	if host == target {
		return true
	}
	return strings.HasSuffix(host, "."+target) || strings.HasSuffix(target, "."+host)
}

// RegistrableDomain returns the eTLD+1 of a host ("shop.brand.co.uk" gives
// "brand.co.uk"). Hosts without a public suffix are returned unchanged.
func RegistrableDomain(host string) string {
	host = BareDomain(host)
	if host == "" {
		return ""
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}

// SameSite reports whether two hosts match by suffix or share a
// registrable domain.
func SameSite(a, b string) bool {
	if HostMatches(a, b) {
		return true
	}
	ra, rb := RegistrableDomain(a), RegistrableDomain(b)
	return ra != "" && ra == rb
}
