// Package telemetry sends anonymous usage events. It is fully optional: when
// no API key is configured, every call is a no-op.
package telemetry

import (
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// Client is the interface for telemetry clients. The abstraction keeps the
// generation path testable and lets telemetry be disabled outright.
type Client interface {
	// Track sends an event asynchronously. Returns immediately without
	// blocking; if telemetry is disabled this is a no-op.
	Track(event string, properties map[string]any)

	// Close flushes pending events and closes the client.
	Close() error
}

// Properties is a type alias for event properties.
type Properties = map[string]any

// enqueuer is the subset of the PostHog client used here; it exists so tests
// can substitute a recorder.
type enqueuer interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// PostHogClient wraps the PostHog SDK for async telemetry.
type PostHogClient struct {
	client     enqueuer
	distinctID string
	mu         sync.RWMutex
}

// ClientConfig holds configuration for initializing the telemetry client.
type ClientConfig struct {
	// APIKey is the PostHog project API key.
	APIKey string

	// Endpoint is an optional custom PostHog endpoint (for self-hosted).
	// Leave empty to use the default PostHog cloud endpoint.
	Endpoint string
}

// NewClient initializes a telemetry client. An empty API key yields a no-op
// client.
func NewClient(cfg ClientConfig) Client {
	if cfg.APIKey == "" {
		return NopClient{}
	}

	var ph posthog.Client
	if cfg.Endpoint != "" {
		client, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{Endpoint: cfg.Endpoint})
		if err != nil {
			return NopClient{}
		}
		ph = client
	} else {
		ph = posthog.New(cfg.APIKey)
	}

	return &PostHogClient{
		client:     ph,
		distinctID: uuid.New().String(),
	}
}

// Track enqueues an event. Enqueue failures are dropped; telemetry never
// affects the request path.
func (c *PostHogClient) Track(event string, properties map[string]any) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}

	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.distinctID,
		Event:      event,
		Properties: props,
	})
}

// Close flushes and closes the underlying client.
func (c *PostHogClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client.Close()
}

// NopClient discards every event.
type NopClient struct{}

func (NopClient) Track(string, map[string]any) {}
func (NopClient) Close() error                 { return nil }
