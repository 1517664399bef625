package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"moff.io/wallet-connector/internal/config"
)

type harness struct {
	discovery *fakeDiscovery
	renderer  *fakeRenderer
	coinbase  *fakeCoinbase
	relay     *fakeRelay
	host      *hostRecorder
	connector *Connector
}

func newHarness(cfg *config.Configuration, injected Provider) *harness {
	h := &harness{
		discovery: newFakeDiscovery(),
		renderer:  &fakeRenderer{},
		coinbase:  &fakeCoinbase{},
		relay:     &fakeRelay{},
		host:      &hostRecorder{},
	}
	h.connector = NewConnector(cfg, Dependencies{
		Discovery: h.discovery,
		Injected:  fakeInjected{provider: injected},
		Coinbase:  h.coinbase,
		Relay:     h.relay,
		Renderer:  h.renderer,
		Host:      h.host.bridge(),
	})
	h.connector.Start()
	return h
}

// No providers, no injected wallet, no relay project id; Coinbase succeeds.
func TestScenarioCoinbase(t *testing.T) {
	h := newHarness(testConfig(""), nil)
	handle := &fakeProvider{accounts: []string{"0xABC..."}}
	h.coinbase.provider = handle

	require.True(t, h.connector.RequestConnection())
	v := h.renderer.last()
	assert.Empty(t, v.Wallets)
	assert.Equal(t, NoWalletsPlaceholder, v.Placeholder)

	require.NoError(t, h.connector.PickRow(context.Background(), rowCoinbase))

	require.Len(t, h.coinbase.opts, 1)
	assert.EqualValues(t, 8453, h.coinbase.opts[0].ChainID)
	assert.Equal(t, config.DefaultRPCURL, h.coinbase.opts[0].RPCURL)
	require.Len(t, h.host.connected, 1)
	assert.Same(t, handle, h.host.connected[0].provider)
	assert.Equal(t, "0xABC...", h.host.connected[0].account)
	assert.Equal(t, "Coinbase Wallet", h.host.connected[0].label)
	assert.Empty(t, h.host.errors)
	assert.Equal(t, Closed, h.connector.Surface.State())
	assert.Equal(t, 1, h.renderer.removedCount())
}

// One announced provider, picked from the surface; only the first account is reported.
func TestScenarioDiscovered(t *testing.T) {
	h := newHarness(testConfig(""), nil)
	handle := &fakeProvider{accounts: []string{"0x1", "0x2"}}
	h.discovery.announce("u1", "Acme Wallet", handle)
	h.connector.RequestConnection()

	v := h.renderer.last()
	require.Len(t, v.Wallets, 1)
	require.NoError(t, h.connector.PickRow(context.Background(), v.Wallets[0].ID))

	require.Len(t, h.host.connected, 1)
	assert.Same(t, handle, h.host.connected[0].provider)
	assert.Equal(t, "0x1", h.host.connected[0].account)
	assert.Equal(t, "Acme Wallet", h.host.connected[0].label)
	assert.Empty(t, h.host.errors)
}

// The legacy injected provider denies access.
func TestScenarioInjectedRejected(t *testing.T) {
	injected := &fakeProvider{err: &RPCError{Code: 4001, Message: "User denied account authorization"}}
	h := newHarness(testConfig(""), injected)
	h.connector.RequestConnection()

	v := h.renderer.last()
	require.Len(t, v.Wallets, 1)
	require.NoError(t, h.connector.PickRow(context.Background(), v.Wallets[0].ID))

	assert.Empty(t, h.host.connected)
	assert.Equal(t, []string{"User denied account authorization"}, h.host.errors)
	assert.Equal(t, Closed, h.connector.Surface.State())
	assert.Equal(t, 1, h.renderer.removedCount())
}

func TestWalletConnectGatingThroughCommand(t *testing.T) {
	h := newHarness(testConfig(""), nil)
	h.connector.RequestConnection()

	assert.Equal(t, ErrUnknownRow, h.connector.PickRow(context.Background(), rowWalletConnect))
	assert.Equal(t, Open, h.connector.Surface.State())

	require.NoError(t, h.connector.ConnectWalletConnect(context.Background()))
	assert.Empty(t, h.relay.dials)
	assert.Equal(t, []string{"WalletConnect not configured yet"}, h.host.errors)
	assert.Equal(t, Closed, h.connector.Surface.State())
}

func TestWalletConnectConfigured(t *testing.T) {
	h := newHarness(testConfig("proj"), nil)
	h.relay.session = &fakeSession{fakeProvider{accounts: []string{"0xfeed"}}}
	h.connector.RequestConnection()

	require.NoError(t, h.connector.PickRow(context.Background(), rowWalletConnect))
	require.Len(t, h.relay.dials, 1)
	assert.Len(t, h.renderer.pairings, 1)
	require.Len(t, h.host.connected, 1)
	assert.Equal(t, "WalletConnect", h.host.connected[0].label)
	assert.Equal(t, "0xfeed", h.host.connected[0].account)
}

func TestConnectDiscoveredByIndex(t *testing.T) {
	h := newHarness(testConfig(""), nil)
	h.discovery.announce("u1", "First", &fakeProvider{accounts: []string{"0xa"}})
	h.discovery.announce("u2", "Second", &fakeProvider{accounts: []string{"0xb"}})

	require.NoError(t, h.connector.ConnectDiscovered(context.Background(), 1))
	require.Len(t, h.host.connected, 1)
	assert.Equal(t, "Second", h.host.connected[0].label)

	assert.Error(t, h.connector.ConnectDiscovered(context.Background(), 5))
	c, e := h.host.counts()
	assert.Equal(t, 1, c)
	assert.Equal(t, 0, e)
}

func TestNoProviderCommand(t *testing.T) {
	h := newHarness(testConfig(""), nil)
	require.NoError(t, h.connector.ConnectInjected(context.Background()))
	assert.Equal(t, []string{"No wallet detected"}, h.host.errors)
	assert.Equal(t, 0, h.renderer.removedCount())
}

func TestSecondPickIgnoredWhilePending(t *testing.T) {
	h := newHarness(testConfig(""), nil)
	block := make(chan struct{})
	handle := &fakeProvider{accounts: []string{"0x1"}, block: block}
	h.discovery.announce("u1", "Slow Wallet", handle)
	h.connector.RequestConnection()

	done := make(chan error, 1)
	go func() { done <- h.connector.ConnectDiscovered(context.Background(), 0) }()
	require.Eventually(t, func() bool { return h.renderer.last().Pending }, time.Second, time.Millisecond)

	assert.Equal(t, ErrAttemptPending, h.connector.ConnectCoinbase(context.Background()))
	assert.Empty(t, h.coinbase.opts)
	assert.False(t, h.connector.RequestConnection())

	close(block)
	require.NoError(t, <-done)
	c, e := h.host.counts()
	assert.Equal(t, 1, c)
	assert.Equal(t, 0, e)
	assert.False(t, h.connector.Pending())
	assert.Equal(t, 1, h.renderer.removedCount())
}

func TestCloseAbandonsPendingAttempt(t *testing.T) {
	h := newHarness(testConfig(""), nil)
	handle := &fakeProvider{accounts: []string{"0x1"}, block: make(chan struct{})}
	h.discovery.announce("u1", "Slow Wallet", handle)
	h.connector.RequestConnection()

	done := make(chan error, 1)
	go func() { done <- h.connector.ConnectDiscovered(context.Background(), 0) }()
	require.Eventually(t, func() bool { return h.renderer.last().Pending }, time.Second, time.Millisecond)

	h.connector.Close()
	require.NoError(t, <-done)
	c, e := h.host.counts()
	assert.Equal(t, 0, c)
	assert.Equal(t, 0, e)
	assert.Equal(t, 1, h.renderer.removedCount())
	assert.False(t, h.connector.Pending())
}

type closableProvider struct {
	fakeProvider
	closed atomic.Bool
}

func (p *closableProvider) Close() error {
	p.closed.Store(true)
	return nil
}

func TestAbandonedAttemptReleasesProvider(t *testing.T) {
	surface := NewSurface(NewRegistry(), nil, &fakeRenderer{}, testConfig("proj"))
	host := &hostRecorder{}
	session := &closableProvider{}
	started := make(chan struct{})
	release := make(chan struct{})
	o := NewOrchestrator(NewRegistry(), surface, Adapters{
		WalletConnect: AdapterFunc(func(ctx context.Context, m Mechanism) (*Result, error) {
			close(started)
			<-release
			return &Result{Provider: session, Accounts: []string{"0x1"}}, nil
		}),
	}, host.bridge())

	o.RequestConnection()
	done := make(chan error, 1)
	go func() { done <- o.ConnectWalletConnect(context.Background()) }()
	<-started
	o.Close()
	close(release)

	require.NoError(t, <-done)
	assert.True(t, session.closed.Load())
	c, e := host.counts()
	assert.Equal(t, 0, c)
	assert.Equal(t, 0, e)
}

func TestCloseAfterSettleDoesNotAbandon(t *testing.T) {
	surface := NewSurface(NewRegistry(), nil, &fakeRenderer{}, testConfig(""))
	var attemptCtx context.Context
	var ctxErr error
	connected := 0
	var o *Orchestrator
	o = NewOrchestrator(NewRegistry(), surface, Adapters{
		Coinbase: AdapterFunc(func(ctx context.Context, m Mechanism) (*Result, error) {
			attemptCtx = ctx
			return &Result{Accounts: []string{"0x1"}}, nil
		}),
	}, HostBridge{
		OnWalletConnected: func(p Provider, account, label string) {
			connected++
			o.Close()
			ctxErr = attemptCtx.Err()
		},
	})

	o.RequestConnection()
	require.NoError(t, o.ConnectCoinbase(context.Background()))
	assert.Equal(t, 1, connected)
	assert.NoError(t, ctxErr)
	assert.Equal(t, Closed, surface.State())
}

func TestAdapterPanicIsNormalized(t *testing.T) {
	surface := NewSurface(NewRegistry(), nil, &fakeRenderer{}, testConfig(""))
	host := &hostRecorder{}
	o := NewOrchestrator(NewRegistry(), surface, Adapters{
		Coinbase: AdapterFunc(func(ctx context.Context, m Mechanism) (*Result, error) {
			panic("sdk exploded")
		}),
	}, host.bridge())

	o.RequestConnection()
	require.NoError(t, o.ConnectCoinbase(context.Background()))
	assert.Equal(t, []string{"coinbase adapter panic: sdk exploded"}, host.errors)
	assert.Equal(t, Closed, surface.State())
	assert.False(t, o.Pending())
}

func TestMissingAdapterAndEmptyResult(t *testing.T) {
	surface := NewSurface(NewRegistry(), nil, &fakeRenderer{}, testConfig(""))
	host := &hostRecorder{}
	o := NewOrchestrator(NewRegistry(), surface, Adapters{
		Coinbase: AdapterFunc(func(ctx context.Context, m Mechanism) (*Result, error) {
			return &Result{}, nil
		}),
	}, host.bridge())

	require.NoError(t, o.ConnectInjected(context.Background()))
	require.NoError(t, o.ConnectCoinbase(context.Background()))
	assert.Equal(t, []string{"unsupported connection method: injected", "no wallet accounts acquired"}, host.errors)
	assert.Empty(t, host.connected)
}

func TestNilHostHandlers(t *testing.T) {
	surface := NewSurface(NewRegistry(), nil, &fakeRenderer{}, testConfig(""))
	o := NewOrchestrator(NewRegistry(), surface, Adapters{
		Injected: NewInjectedAdapter(nil),
		Coinbase: AdapterFunc(func(ctx context.Context, m Mechanism) (*Result, error) {
			return &Result{Accounts: []string{"0x1"}}, nil
		}),
	}, HostBridge{})

	assert.NotPanics(t, func() {
		_ = o.ConnectInjected(context.Background())
		_ = o.ConnectCoinbase(context.Background())
	})
}

func TestExactlyOneAdapterPerAttempt(t *testing.T) {
	invoked := map[MechanismKind]int{}
	adapter := func(kind MechanismKind) Adapter {
		return AdapterFunc(func(ctx context.Context, m Mechanism) (*Result, error) {
			invoked[kind]++
			return &Result{Accounts: []string{"0x1"}}, nil
		})
	}
	surface := NewSurface(NewRegistry(), nil, &fakeRenderer{}, testConfig("proj"))
	o := NewOrchestrator(NewRegistry(), surface, Adapters{
		Discovered:    adapter(Discovered),
		WalletConnect: adapter(WalletConnectRelay),
		Coinbase:      adapter(CoinbaseSDK),
		Injected:      adapter(LegacyInjected),
	}, HostBridge{})

	require.NoError(t, o.ConnectWalletConnect(context.Background()))
	assert.Equal(t, map[MechanismKind]int{WalletConnectRelay: 1}, invoked)
}
