// Package backend is the dual-channel client for the generative text
// service: a local command channel and a networked channel, tried in
// preference order with automatic fallback, availability memoization,
// and TTL-cached responses.
//
// One Client is constructed per process run and injected into every hook.
// Channel availability is probed lazily on first use and memoized for the
// rest of the run; only a failed call demotes a channel once probed.
package backend

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/hookwise/hookwise/internal/config"
)

var (
	// ErrUnavailable means neither channel can serve the request. Hooks
	// recover from this with their deterministic fallbacks; it must never
	// propagate as an unhandled fault.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrMissingCredential means the networked channel was asked to run
	// without a credential. A configuration error, distinct from any
	// transient channel failure.
	ErrMissingCredential = errors.New("missing api credential")
)

// availability is the memoized tristate of one channel.
type availability int

const (
	availabilityUnknown availability = iota
	availabilityAvailable
	availabilityUnavailable
)

// channel is one invocation path to the generative service.
type channel interface {
	name() string
	probe(ctx context.Context) error
	invoke(ctx context.Context, req Request) (string, error)
}

// Request describes one generation call.
type Request struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64

	// Cache enables fingerprint-keyed response caching for this call.
	Cache bool

	// PreferCLI tries the command channel first, falling back to the
	// networked channel on failure. When false the networked channel is
	// preferred, but the command channel still serves the call when the
	// networked one is unavailable.
	PreferCLI bool
}

// Response is a successful generation outcome.
type Response struct {
	Text string

	// Channel records which path produced the text: "cli", "api", or
	// "cache" for a fingerprint hit.
	Channel string
}

// Client fronts both channels for one process run.
type Client struct {
	cli   channel
	api   channel
	cache *Cache

	cliState availability
	apiState availability

	// apiMissingCredential remembers that the networked channel probe
	// failed for want of a credential rather than a transient fault.
	apiMissingCredential bool
}

// New builds the process-wide client from settings. The API credential is
// resolved from the environment: HOOKWISE_API_KEY or ANTHROPIC_API_KEY as
// an API key, ANTHROPIC_AUTH_TOKEN as a bearer token.
func New(settings config.BackendSettings, cacheDir string) *Client {
	apiKey, bearer := resolveCredential()
	return &Client{
		cli:   newCLIChannel(settings.CLIBin, settings.Timeout),
		api:   newAPIChannel(settings.Endpoint, apiKey, bearer, settings.Timeout),
		cache: NewCache(cacheDir),
	}
}

func resolveCredential() (apiKey, bearerToken string) {
	if v := os.Getenv("HOOKWISE_API_KEY"); v != "" {
		return v, ""
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		return v, ""
	}
	if v := os.Getenv("ANTHROPIC_AUTH_TOKEN"); v != "" {
		return "", v
	}
	return "", ""
}

// Invoke runs one generation request through the channels.
//
// Order of operations: probe any channel still unknown; fail fast with
// ErrUnavailable when neither is usable; serve from cache when requested
// and fresh; then attempt the command channel (when preferred and
// available) with fallback to the networked channel. A failed call
// memoizes that channel as unavailable for the rest of the run.
func (c *Client) Invoke(ctx context.Context, req Request) (*Response, error) {
	c.probeUnknown(ctx)

	if c.cliState != availabilityAvailable && c.apiState != availabilityAvailable {
		return nil, ErrUnavailable
	}

	var key string
	if req.Cache {
		key = Fingerprint(req.Model, req.Temperature, req.Prompt)
		if payload, ok := c.cache.Get(key); ok {
			log.Debug().Str("fingerprint", key).Msg("cache hit")
			return &Response{Text: payload, Channel: "cache"}, nil
		}
	}

	// The command channel goes first when preferred, and also serves as
	// the only remaining path when the networked channel is already out.
	attemptCLI := c.cliState == availabilityAvailable &&
		(req.PreferCLI || c.apiState != availabilityAvailable)
	if attemptCLI {
		text, err := c.cli.invoke(ctx, req)
		if err == nil {
			c.store(key, text, req.Cache)
			return &Response{Text: text, Channel: c.cli.name()}, nil
		}
		c.cliState = availabilityUnavailable
		log.Warn().Err(err).Msg("command channel failed, falling back to networked channel")
	}

	if c.apiState != availabilityAvailable {
		if c.apiMissingCredential {
			return nil, ErrMissingCredential
		}
		return nil, ErrUnavailable
	}

	text, err := c.api.invoke(ctx, req)
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			return nil, err
		}
		c.apiState = availabilityUnavailable
		return nil, err
	}
	c.store(key, text, req.Cache)
	return &Response{Text: text, Channel: c.api.name()}, nil
}

// probeUnknown probes whichever channels have not been probed yet and
// memoizes the results.
func (c *Client) probeUnknown(ctx context.Context) {
	if c.cliState == availabilityUnknown {
		c.cliState, _ = c.runProbe(ctx, c.cli)
	}
	if c.apiState == availabilityUnknown {
		var probeErr error
		c.apiState, probeErr = c.runProbe(ctx, c.api)
		c.apiMissingCredential = errors.Is(probeErr, ErrMissingCredential)
	}
}

func (c *Client) runProbe(ctx context.Context, ch channel) (availability, error) {
	if err := ch.probe(ctx); err != nil {
		log.Debug().Str("channel", ch.name()).Err(err).Msg("channel probe failed")
		return availabilityUnavailable, err
	}
	log.Debug().Str("channel", ch.name()).Msg("channel available")
	return availabilityAvailable, nil
}

// store caches a successful payload when the request asked for it.
func (c *Client) store(key, payload string, cache bool) {
	if !cache || key == "" {
		return
	}
	if err := c.cache.Put(key, payload); err != nil {
		log.Warn().Err(err).Msg("failed to write cache entry")
	}
}

// Available reports the memoized channel states for diagnostics, probing
// anything still unknown.
func (c *Client) Available(ctx context.Context) (cli, api bool) {
	c.probeUnknown(ctx)
	return c.cliState == availabilityAvailable, c.apiState == availabilityAvailable
}
