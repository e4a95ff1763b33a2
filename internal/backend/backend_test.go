package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel scripts one channel's probe and invoke behavior and counts
// invocations.
type fakeChannel struct {
	channelName string
	probeErr    error
	invokeText  string
	invokeErr   error
	invokeCalls int
}

func (f *fakeChannel) name() string                    { return f.channelName }
func (f *fakeChannel) probe(context.Context) error     { return f.probeErr }
func (f *fakeChannel) invoke(context.Context, Request) (string, error) {
	f.invokeCalls++
	return f.invokeText, f.invokeErr
}

func newTestClient(t *testing.T, cli, api *fakeChannel) *Client {
	t.Helper()
	return &Client{cli: cli, api: api, cache: NewCache(t.TempDir())}
}

// ===== AVAILABILITY =====

// TestInvoke_BothChannelsUnavailable verifies the distinct unavailable
// error when neither channel passes its probe.
func TestInvoke_BothChannelsUnavailable(t *testing.T) {
	cli := &fakeChannel{channelName: "cli", probeErr: errors.New("not installed")}
	api := &fakeChannel{channelName: "api", probeErr: errors.New("unreachable")}
	c := newTestClient(t, cli, api)

	_, err := c.Invoke(context.Background(), Request{Prompt: "p", Model: "m", PreferCLI: true})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, cli.invokeCalls)
	assert.Zero(t, api.invokeCalls)
}

// TestInvoke_ProbesAreMemoized verifies availability probing happens once
// per process run, not once per call.
func TestInvoke_ProbesAreMemoized(t *testing.T) {
	probes := 0
	cli := &fakeChannel{channelName: "cli", invokeText: "ok"}
	api := &fakeChannel{channelName: "api", invokeText: "ok"}
	c := newTestClient(t, cli, api)
	c.cli = probeCounter{channel: cli, count: &probes}

	for i := 0; i < 3; i++ {
		_, err := c.Invoke(context.Background(), Request{Prompt: "p", Model: "m", PreferCLI: true})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, probes)
}

type probeCounter struct {
	channel
	count *int
}

func (p probeCounter) probe(ctx context.Context) error {
	*p.count++
	return p.channel.probe(ctx)
}

// ===== CHANNEL SELECTION =====

// TestInvoke_PreferCLIUsesCommandChannel verifies the command channel
// serves the call when preferred and available, without touching the
// networked channel.
func TestInvoke_PreferCLIUsesCommandChannel(t *testing.T) {
	cli := &fakeChannel{channelName: "cli", invokeText: "local answer"}
	api := &fakeChannel{channelName: "api", invokeText: "remote answer"}
	c := newTestClient(t, cli, api)

	resp, err := c.Invoke(context.Background(), Request{Prompt: "p", Model: "m", PreferCLI: true})
	require.NoError(t, err)
	assert.Equal(t, "local answer", resp.Text)
	assert.Equal(t, "cli", resp.Channel)
	assert.Zero(t, api.invokeCalls)
}

// TestInvoke_CLIFailureFallsBackToAPI verifies the fallback path and that
// the failed command channel is memoized unavailable for later calls.
func TestInvoke_CLIFailureFallsBackToAPI(t *testing.T) {
	cli := &fakeChannel{channelName: "cli", invokeErr: errors.New("binary crashed")}
	api := &fakeChannel{channelName: "api", invokeText: "remote answer"}
	c := newTestClient(t, cli, api)

	resp, err := c.Invoke(context.Background(), Request{Prompt: "p", Model: "m", PreferCLI: true})
	require.NoError(t, err)
	assert.Equal(t, "remote answer", resp.Text)
	assert.Equal(t, "api", resp.Channel)
	assert.Equal(t, 1, cli.invokeCalls)

	// Second call goes straight to the networked channel.
	_, err = c.Invoke(context.Background(), Request{Prompt: "p2", Model: "m", PreferCLI: true})
	require.NoError(t, err)
	assert.Equal(t, 1, cli.invokeCalls)
	assert.Equal(t, 2, api.invokeCalls)
}

// TestInvoke_APIPreferredSkipsCLI verifies the command channel stays idle
// when not preferred.
func TestInvoke_APIPreferredSkipsCLI(t *testing.T) {
	cli := &fakeChannel{channelName: "cli", invokeText: "local answer"}
	api := &fakeChannel{channelName: "api", invokeText: "remote answer"}
	c := newTestClient(t, cli, api)

	resp, err := c.Invoke(context.Background(), Request{Prompt: "p", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "api", resp.Channel)
	assert.Zero(t, cli.invokeCalls)
}

// TestInvoke_CLIServesWhenAPIOut verifies the command channel still serves
// a non-preferring call once the networked channel is known unavailable.
func TestInvoke_CLIServesWhenAPIOut(t *testing.T) {
	cli := &fakeChannel{channelName: "cli", invokeText: "local answer"}
	api := &fakeChannel{channelName: "api", probeErr: errors.New("down")}
	c := newTestClient(t, cli, api)

	resp, err := c.Invoke(context.Background(), Request{Prompt: "p", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "cli", resp.Channel)
}

// ===== ERROR TAXONOMY =====

// TestInvoke_APIFailurePropagates verifies a networked channel failure
// reaches the caller and demotes the channel.
func TestInvoke_APIFailurePropagates(t *testing.T) {
	cli := &fakeChannel{channelName: "cli", probeErr: errors.New("not installed")}
	api := &fakeChannel{channelName: "api", invokeErr: errors.New("status 500")}
	c := newTestClient(t, cli, api)

	_, err := c.Invoke(context.Background(), Request{Prompt: "p", Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	// Channel is now memoized unavailable; the next call cannot be served.
	_, err = c.Invoke(context.Background(), Request{Prompt: "p", Model: "m"})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, api.invokeCalls)
}

// TestInvoke_MissingCredentialIsDistinct verifies a credential-less
// networked channel surfaces ErrMissingCredential, not the generic
// unavailable error, while another channel path exists.
func TestInvoke_MissingCredentialIsDistinct(t *testing.T) {
	cli := &fakeChannel{channelName: "cli", invokeErr: errors.New("binary crashed")}
	api := &fakeChannel{channelName: "api", probeErr: ErrMissingCredential}
	c := newTestClient(t, cli, api)

	_, err := c.Invoke(context.Background(), Request{Prompt: "p", Model: "m", PreferCLI: true})
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

// ===== CACHING =====

// TestInvoke_CacheServesSecondCall verifies two identical cached requests
// produce exactly one underlying channel call and a byte-identical payload.
func TestInvoke_CacheServesSecondCall(t *testing.T) {
	cli := &fakeChannel{channelName: "cli", invokeText: "generated once"}
	api := &fakeChannel{channelName: "api"}
	c := newTestClient(t, cli, api)

	req := Request{Prompt: "summarize", Model: "m", Temperature: 0.2, Cache: true, PreferCLI: true}

	first, err := c.Invoke(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "cli", first.Channel)

	second, err := c.Invoke(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "cache", second.Channel)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, cli.invokeCalls)
}

// TestInvoke_CacheDisabledAlwaysCalls verifies uncached requests hit the
// channel every time.
func TestInvoke_CacheDisabledAlwaysCalls(t *testing.T) {
	cli := &fakeChannel{channelName: "cli", invokeText: "fresh"}
	api := &fakeChannel{channelName: "api"}
	c := newTestClient(t, cli, api)

	req := Request{Prompt: "p", Model: "m", PreferCLI: true}
	for i := 0; i < 2; i++ {
		_, err := c.Invoke(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cli.invokeCalls)
}

// TestInvoke_DifferentPromptsMissCache verifies the fingerprint separates
// requests by prompt.
func TestInvoke_DifferentPromptsMissCache(t *testing.T) {
	cli := &fakeChannel{channelName: "cli", invokeText: "answer"}
	api := &fakeChannel{channelName: "api"}
	c := newTestClient(t, cli, api)

	_, err := c.Invoke(context.Background(), Request{Prompt: "one", Model: "m", Cache: true, PreferCLI: true})
	require.NoError(t, err)
	_, err = c.Invoke(context.Background(), Request{Prompt: "two", Model: "m", Cache: true, PreferCLI: true})
	require.NoError(t, err)
	assert.Equal(t, 2, cli.invokeCalls)
}
