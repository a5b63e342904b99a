// Package validation checks user-supplied feed URLs before they are probed
// or sent to the API.
package validation

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

const DefaultMaxLength = 2048

var (
	ErrEmptyURL       = errors.New("URL cannot be empty")
	ErrURLTooLong     = errors.New("URL too long")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrDisallowedHost = errors.New("host not permitted")
)

// FeedURLValidator normalises feed URLs and rejects ones that point at
// the local machine or a private network unless told otherwise.
type FeedURLValidator struct {
	AllowLocalhost  bool
	AllowPrivateIPs bool
	MaxLength       int
}

func NewFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{MaxLength: DefaultMaxLength}
}

// NewPermissiveFeedURLValidator accepts local and private hosts, for
// development backends and tests.
func NewPermissiveFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       DefaultMaxLength,
	}
}

// ValidateAndNormalize trims input, adds https:// when no scheme is given
// and returns the cleaned URL.
func (v *FeedURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyURL
	}

	maxLen := v.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	if len(input) > maxLen {
		return "", fmt.Errorf("%w (max %d characters)", ErrURLTooLong, maxLen)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("%w: contains characters not allowed in a URL", ErrInvalidURL)
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q is not http or https", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if u.User != nil {
		return "", fmt.Errorf("%w: credentials in URL", ErrInvalidURL)
	}

	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	return u.String(), nil
}

func (v *FeedURLValidator) checkHost(host string) error {
	host = strings.ToLower(host)

	if isLocalhost(host) {
		if !v.AllowLocalhost {
			return fmt.Errorf("%w: %s is local", ErrDisallowedHost, host)
		}
		return nil
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		if net.ParseIP(host) == nil && strings.Trim(host, "0123456789.") == "" {
			return fmt.Errorf("%w: malformed address %s", ErrInvalidURL, host)
		}
		return nil
	}
	if addr.IsUnspecified() || addr.IsMulticast() {
		return fmt.Errorf("%w: %s is not routable", ErrDisallowedHost, host)
	}
	if !v.AllowPrivateIPs && (addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast()) {
		return fmt.Errorf("%w: %s is a private address", ErrDisallowedHost, host)
	}
	return nil
}

func isLocalhost(host string) bool {
	return host == "localhost" || strings.HasSuffix(host, ".localhost") ||
		host == "127.0.0.1" || host == "::1"
}
