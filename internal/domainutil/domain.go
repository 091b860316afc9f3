package domainutil

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Unknown is the sentinel domain returned for input that cannot be
// resolved to a host: empty strings, unparsable URLs, schemeless paths.
const Unknown = "unknown"

// Extract pulls the tracking key out of a raw URL string. It never fails:
// every unusable input degrades to Unknown.
//
// Pseudo-URLs like "chrome://extensions" or "about:blank" return the
// scheme token itself ("chrome", "about") so callers can recognize and
// exclude non-web contexts without losing them in the Unknown bucket.
// Web URLs return the host: lowercased, port stripped, internationalized
// labels punycode-encoded, IP literals passed through unchanged.
func Extract(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Unknown
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Unknown
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "":
		// "not-a-url" parses as a bare path
		return Unknown
	case "http", "https":
		return normalizeHost(u.Hostname())
	default:
		return scheme
	}
}

// Trackable reports whether a URL belongs to the trackable web: only
// http and https pages accrue time.
func Trackable(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Hostname() != ""
}

// normalizeHost lowercases a hostname and punycode-encodes any
// internationalized labels. IP literals are returned as-is.
func normalizeHost(host string) string {
	if host == "" {
		return Unknown
	}

	host = strings.ToLower(host)

	if net.ParseIP(host) != nil {
		return host
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		// Hosts that fail strict IDNA mapping (underscores, odd labels)
		// are still tracked under their raw lowercased form.
		return host
	}
	return ascii
}
