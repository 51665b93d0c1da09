package config

import (
	"log"
	"net/url"
)

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustURL exits unless value is an absolute URL. Upstream addresses are only
// read at startup; a malformed one should kill the process, not the first
// proxied request.
func MustURL(value, envName string) {
	MustNonEmpty(value, envName)
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		log.Fatalf("env %s is not a valid URL: %q", envName, value)
	}
}
