// Package testconf loads the browser-test configuration from a Java-style
// properties file. Recognized keys are enumerated and typed; unknown
// browser values fail at load time instead of silently defaulting.
package testconf

import (
	"fmt"

	"github.com/joho/godotenv"
)

// Browser is the closed set of supported remote browsers.
type Browser string

const (
	BrowserChrome  Browser = "chrome"
	BrowserFirefox Browser = "firefox"
	BrowserEdge    Browser = "edge"
	BrowserSafari  Browser = "safari"
)

// ParseBrowser maps a raw value onto the supported set. An empty value
// defaults to chrome; anything else unrecognized is an error.
func ParseBrowser(raw string) (Browser, error) {
	switch Browser(raw) {
	case "":
		return BrowserChrome, nil
	case BrowserChrome, BrowserFirefox, BrowserEdge, BrowserSafari:
		return Browser(raw), nil
	default:
		return "", fmt.Errorf("unsupported browser %q", raw)
	}
}

// Config is the typed view of configuration.properties.
//
// URL is required at load. Credential-like keys (company, username,
// password) are optional at load and fatal at first use via Require.
type Config struct {
	Browser Browser
	URL     string

	values map[string]string
}

// Recognized credential-like keys.
const (
	KeyCompany  = "company"
	KeyUsername = "username"
	KeyPassword = "password"
)

// Load reads and validates a properties file.
func Load(path string) (*Config, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration file: %w", err)
	}

	browser, err := ParseBrowser(values["browser"])
	if err != nil {
		return nil, err
	}

	url := values["url"]
	if url == "" {
		return nil, fmt.Errorf("configuration key %q is missing", "url")
	}

	return &Config{Browser: browser, URL: url, values: values}, nil
}

// Get returns a raw value; absent keys yield the empty string.
func (c *Config) Get(key string) string {
	return c.values[key]
}

// Require returns a value or an error naming the missing key. Callers use
// it at first use of credential-like values so a misconfiguration is fatal
// with a precise message.
func (c *Config) Require(key string) (string, error) {
	v, ok := c.values[key]
	if !ok || v == "" {
		return "", fmt.Errorf("required configuration key %q is absent", key)
	}
	return v, nil
}
