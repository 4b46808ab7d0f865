// Package ingest lists the RTMP ingest endpoints of a streaming service and
// measures how quickly they answer.
package ingest

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/smazurov/restream/internal/config"
)

// Service names a streaming platform the terminal knows how to publish to.
type Service string

// Supported services. ServiceCustom takes its RTMP URL from the settings as is.
const (
	ServiceTwitch Service = "twitch"
	ServiceCustom Service = "custom"
)

// ParseService parses a service name case-insensitively. An empty name is twitch.
func ParseService(s string) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ServiceTwitch):
		return ServiceTwitch, nil
	case string(ServiceCustom):
		return ServiceCustom, nil
	default:
		return "", fmt.Errorf("unknown ingest service %q", s)
	}
}

// Ingest is a single ingest endpoint.
type Ingest struct {
	ID           int     `json:"id" doc:"Service assigned ingest id"`
	Name         string  `json:"name" example:"US West: Los Angeles, CA" doc:"Human readable location"`
	URLTemplate  string  `json:"url_template" example:"rtmp://lax.contribute.live-video.net/app/{stream_key}" doc:"RTMP URL with a stream key placeholder"`
	Availability float64 `json:"availability" doc:"1 when the ingest accepts streams"`
	Default      bool    `json:"default" doc:"Whether the service recommends this ingest"`
}

// URL returns the publish URL for key. Templates without a placeholder get
// the key appended as the last path segment.
func (i Ingest) URL(key string) string {
	if strings.Contains(i.URLTemplate, config.StreamKeyPlaceholder) {
		return strings.ReplaceAll(i.URLTemplate, config.StreamKeyPlaceholder, key)
	}
	if key == "" {
		return i.URLTemplate
	}
	return strings.TrimSuffix(i.URLTemplate, "/") + "/" + key
}

// Available reports whether the ingest accepts streams.
func (i Ingest) Available() bool { return i.Availability > 0 }

// Catalog is the ingest list of one service in the order the service returned it.
type Catalog []Ingest

// Filter returns the ingests whose name contains substr, ignoring case.
func (c Catalog) Filter(substr string) Catalog {
	needle := strings.ToLower(substr)
	return lo.Filter(c, func(i Ingest, _ int) bool {
		return strings.Contains(strings.ToLower(i.Name), needle)
	})
}

// Available returns the ingests that currently accept streams.
func (c Catalog) Available() Catalog {
	return lo.Filter(c, func(i Ingest, _ int) bool { return i.Available() })
}

// Names returns the ingest names.
func (c Catalog) Names() []string {
	return lo.Map(c, func(i Ingest, _ int) string { return i.Name })
}

// Find returns the ingest called name.
func (c Catalog) Find(name string) (Ingest, bool) {
	return lo.Find(c, func(i Ingest) bool { return i.Name == name })
}

// Default returns the ingest the service recommends, or the first available one.
func (c Catalog) Default() (Ingest, bool) {
	if i, ok := lo.Find(c, func(i Ingest) bool { return i.Default && i.Available() }); ok {
		return i, true
	}
	return lo.First(c.Available())
}
