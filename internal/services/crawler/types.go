package crawler

import (
	"errors"
	"time"
)

// ErrNoItems means the page fetched fine but extraction produced nothing,
// usually a sign the site changed its markup.
var ErrNoItems = errors.New("no items extracted")

// ErrHealingFailed means the AI selector regeneration attempt did not
// produce a usable config.
var ErrHealingFailed = errors.New("config healing failed")

// Result is one extracted item before it becomes stored content
type Result struct {
	URL         string
	Title       string
	Content     string
	PublishedAt *time.Time
	Metadata    map[string]interface{}
}

// Config holds the selector-driven extraction settings for HTML sources.
// Selectors for title/link/date/content are relative to each list item.
type Config struct {
	ListSelector    string            `json:"list_selector,omitempty"`
	TitleSelector   string            `json:"title_selector,omitempty"`
	LinkSelector    string            `json:"link_selector,omitempty"`
	DateSelector    string            `json:"date_selector,omitempty"`
	ContentSelector string            `json:"content_selector,omitempty"`
	BaseURL         string            `json:"base_url,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	Keywords        []string          `json:"keywords,omitempty"`

	// DateFormat, when set, is tried first when parsing item dates
	DateFormat string `json:"date_format,omitempty"`

	// TimeoutSeconds and UseBrowser are accepted per-source settings;
	// browser rendering is not performed by this crawler.
	TimeoutSeconds int  `json:"timeout,omitempty"`
	UseBrowser     bool `json:"use_browser,omitempty"`
}

// ConfigFromMap builds a Config from the opaque source config map
func ConfigFromMap(m map[string]interface{}) *Config {
	cfg := &Config{}
	if m == nil {
		return cfg
	}

	str := func(key string) string {
		if v, ok := m[key].(string); ok {
			return v
		}
		return ""
	}

	cfg.ListSelector = str("list_selector")
	cfg.TitleSelector = str("title_selector")
	cfg.LinkSelector = str("link_selector")
	cfg.DateSelector = str("date_selector")
	cfg.ContentSelector = str("content_selector")
	cfg.BaseURL = str("base_url")
	cfg.DateFormat = str("date_format")

	switch v := m["timeout"].(type) {
	case int:
		cfg.TimeoutSeconds = v
	case float64:
		cfg.TimeoutSeconds = int(v)
	}
	if v, ok := m["use_browser"].(bool); ok {
		cfg.UseBrowser = v
	}

	if headers, ok := m["headers"].(map[string]interface{}); ok {
		cfg.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			if s, ok := v.(string); ok {
				cfg.Headers[k] = s
			}
		}
	}

	if keywords, ok := m["keywords"].([]interface{}); ok {
		for _, v := range keywords {
			if s, ok := v.(string); ok {
				cfg.Keywords = append(cfg.Keywords, s)
			}
		}
	}

	return cfg
}

// ToMap converts the config back to the opaque map form stored on a source
func (c *Config) ToMap() map[string]interface{} {
	m := make(map[string]interface{})
	if c.ListSelector != "" {
		m["list_selector"] = c.ListSelector
	}
	if c.TitleSelector != "" {
		m["title_selector"] = c.TitleSelector
	}
	if c.LinkSelector != "" {
		m["link_selector"] = c.LinkSelector
	}
	if c.DateSelector != "" {
		m["date_selector"] = c.DateSelector
	}
	if c.ContentSelector != "" {
		m["content_selector"] = c.ContentSelector
	}
	if c.BaseURL != "" {
		m["base_url"] = c.BaseURL
	}
	if c.DateFormat != "" {
		m["date_format"] = c.DateFormat
	}
	if c.TimeoutSeconds > 0 {
		m["timeout"] = c.TimeoutSeconds
	}
	if c.UseBrowser {
		m["use_browser"] = c.UseBrowser
	}
	return m
}
