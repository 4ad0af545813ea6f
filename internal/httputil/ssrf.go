package httputil

import (
	"context"
	"fmt"
	"net"
	"net/url"
)

// ValidateIP checks if an IP address is an acceptable redirect target.
// Returns an error if the IP is:
//   - Private (RFC 1918: 10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
//   - Loopback (127.0.0.0/8, ::1)
//   - Link-local unicast (169.254.0.0/16, fe80::/10), which includes cloud metadata services
//   - Multicast or link-local multicast
//   - Unspecified (0.0.0.0, ::)
//
// The host parameter is included in error messages for debugging.
func ValidateIP(ip net.IP, host string) error {
	switch {
	case ip.IsPrivate():
		return fmt.Errorf("refusing redirect to private IP: %s (%s)", host, ip)
	case ip.IsLoopback():
		return fmt.Errorf("refusing redirect to loopback IP: %s (%s)", host, ip)
	case ip.IsLinkLocalUnicast():
		return fmt.Errorf("refusing redirect to link-local IP: %s (%s)", host, ip)
	case ip.IsLinkLocalMulticast():
		return fmt.Errorf("refusing redirect to link-local multicast: %s (%s)", host, ip)
	case ip.IsMulticast():
		return fmt.Errorf("refusing redirect to multicast IP: %s (%s)", host, ip)
	case ip.IsUnspecified():
		return fmt.Errorf("refusing redirect to unspecified IP: %s (%s)", host, ip)
	}
	return nil
}

// lookupFunc resolves a host name to its addresses.
type lookupFunc func(ctx context.Context, host string) ([]net.IP, error)

func defaultLookup(ctx context.Context, host string) ([]net.IP, error) {
	return net.DefaultResolver.LookupIP(ctx, "ip", host)
}

// validateHop applies the redirect policy to a redirect target: HTTPS only,
// and every address the host resolves to must pass ValidateIP. Checking all
// resolved addresses closes the DNS rebinding hole a single lookup leaves.
//
// A proxied hop is resolved by the proxy, not locally, so only literal IP
// hosts are checked.
func validateHop(ctx context.Context, u *url.URL, lookup lookupFunc, proxied bool) error {
	if u.Scheme != "https" {
		return fmt.Errorf("redirect to non-HTTPS URL is not allowed: %s", u.Redacted())
	}

	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		return ValidateIP(ip, host)
	}
	if proxied {
		return nil
	}

	ips, err := lookup(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to resolve redirect host %s: %w", host, err)
	}
	for _, ip := range ips {
		if err := ValidateIP(ip, host); err != nil {
			return fmt.Errorf("refusing redirect: %s resolves to blocked IP %s", host, ip)
		}
	}
	return nil
}
