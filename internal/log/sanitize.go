package log

import "net/url"

// SanitizeURL strips userinfo, query string and fragment from a URL before it
// is logged. Release hosts and mirrors sometimes carry tokens in either place,
// and redirect targets on object storage are usually pre-signed.
// Strings that do not parse as URLs are returned unchanged.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.User != nil {
		u.User = url.User("REDACTED")
	}
	if u.RawQuery != "" {
		u.RawQuery = "REDACTED"
	}
	u.Fragment = ""
	return u.String()
}
