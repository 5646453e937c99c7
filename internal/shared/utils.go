// Package shared
package shared

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const bearerPrefix = "Bearer "

func SafeEnv(env string) (string, error) {
	// Lookup env variable, and error if not present
	res, present := os.LookupEnv(env)
	if !present {
		return "", fmt.Errorf("missing environment variable %s", env)
	}
	return res, nil
}

func GetEnv(env, fallback string) string {
	if value, ok := os.LookupEnv(env); ok {
		return value
	}
	return fallback
}

// ExtractBearerToken pulls the id token out of an Authorization header value.
// The prefix is case sensitive.
func ExtractBearerToken(auth string) (string, error) {
	if auth == "" {
		return "", ErrMissingAuth
	}
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", ErrInvalidFormat
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix))
	if token == "" {
		return "", ErrInvalidFormat
	}
	return token, nil
}

// Today returns the UTC calendar date of now as YYYY-MM-DD
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}
