package wallet

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"moff.io/wallet-connector/pkg/errors"
)

func TestDiscoveredAdapter(t *testing.T) {
	p := &fakeProvider{accounts: []string{"0x1", "0x2"}}
	dp := &DiscoveredProvider{ID: "u1", DisplayName: "Acme Wallet", Handle: p}

	res, err := NewDiscoveredAdapter().Connect(context.Background(), DiscoveredMechanism(dp))
	require.NoError(t, err)
	assert.Equal(t, []string{"0x1", "0x2"}, res.Accounts)
	assert.Equal(t, "Acme Wallet", res.Label)
	assert.Same(t, p, res.Provider)
	assert.Equal(t, []string{"eth_requestAccounts"}, p.calls())
}

func TestDiscoveredAdapterRejects(t *testing.T) {
	p := &fakeProvider{err: &RPCError{Code: 4001, Message: "User rejected the request."}}
	dp := &DiscoveredProvider{ID: "u1", Handle: p}
	_, err := NewDiscoveredAdapter().Connect(context.Background(), DiscoveredMechanism(dp))
	ce := Normalize(err)
	assert.Equal(t, KindUserRejected, ce.Kind)
	assert.Equal(t, "User rejected the request.", ce.Message)
}

func TestParseAccounts(t *testing.T) {
	_, err := parseAccounts(json.RawMessage(`{"accounts":[]}`))
	assert.Equal(t, KindProvider, Normalize(err).Kind)
	_, err = parseAccounts(json.RawMessage(`[]`))
	assert.EqualError(t, err, "no wallet accounts acquired")
	accounts, err := parseAccounts(json.RawMessage(`["0xabc"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"0xabc"}, accounts)
}

func TestInjectedAdapterNoWallet(t *testing.T) {
	_, err := NewInjectedAdapter(fakeInjected{}).Connect(context.Background(), InjectedMechanism())
	ce := Normalize(err)
	assert.Equal(t, KindNoProvider, ce.Kind)
	assert.Equal(t, "No wallet detected", ce.Message)

	_, err = NewInjectedAdapter(nil).Connect(context.Background(), InjectedMechanism())
	assert.Equal(t, KindNoProvider, Normalize(err).Kind)
}

func TestCoinbaseAdapterBindsChain(t *testing.T) {
	sdk := &fakeCoinbase{provider: &fakeProvider{accounts: []string{"0xABC"}}}
	res, err := NewCoinbaseAdapter(sdk, testConfig("")).Connect(context.Background(), CoinbaseMechanism())
	require.NoError(t, err)
	assert.Equal(t, LabelCoinbase, res.Label)
	require.Len(t, sdk.opts, 1)
	assert.EqualValues(t, 8453, sdk.opts[0].ChainID)
	assert.Equal(t, "0x2105", sdk.opts[0].ChainIDHex)
	assert.Equal(t, "https://mainnet.base.org", sdk.opts[0].RPCURL)
	assert.Equal(t, "ARCA Presale", sdk.opts[0].AppName)
}

func TestCoinbaseAdapterSDKFailure(t *testing.T) {
	sdk := &fakeCoinbase{err: errors.New("sdk unavailable")}
	_, err := NewCoinbaseAdapter(sdk, testConfig("")).Connect(context.Background(), CoinbaseMechanism())
	ce := Normalize(err)
	assert.Equal(t, KindUnknown, ce.Kind)
	assert.Equal(t, "make coinbase provider: sdk unavailable", ce.Message)
}

func TestWalletConnectAdapterRequiresProjectID(t *testing.T) {
	relay := &fakeRelay{session: &fakeSession{fakeProvider{accounts: []string{"0x1"}}}}
	rend := &fakeRenderer{}
	s := NewSurface(NewRegistry(), nil, rend, testConfig(""))

	_, err := NewWalletConnectAdapter(relay, s, testConfig("")).Connect(context.Background(), WalletConnectMechanism())
	ce := Normalize(err)
	assert.Equal(t, KindConfiguration, ce.Kind)
	assert.Equal(t, "WalletConnect not configured yet", ce.Message)
	assert.Empty(t, relay.dials)
	assert.Empty(t, rend.pairings)
}

func TestWalletConnectAdapterDials(t *testing.T) {
	session := &fakeSession{fakeProvider{accounts: []string{"0xdef"}}}
	relay := &fakeRelay{session: session}
	rend := &fakeRenderer{}
	cfg := testConfig("proj")
	s := NewSurface(NewRegistry(), nil, rend, cfg)

	res, err := NewWalletConnectAdapter(relay, s, cfg).Connect(context.Background(), WalletConnectMechanism())
	require.NoError(t, err)
	assert.Equal(t, LabelWalletConnect, res.Label)
	assert.Equal(t, []string{"0xdef"}, res.Accounts)
	assert.Same(t, session, res.Provider)
	require.Len(t, relay.dials, 1)
	assert.Equal(t, "proj", relay.dials[0].ProjectID)
	assert.EqualValues(t, 8453, relay.dials[0].ChainID)
	assert.Equal(t, "https://mainnet.base.org", relay.dials[0].RPCURL)
	assert.Len(t, rend.pairings, 1)
}

func TestWalletConnectAdapterNoAccounts(t *testing.T) {
	relay := &fakeRelay{session: &fakeSession{}}
	cfg := testConfig("proj")
	_, err := NewWalletConnectAdapter(relay, nil, cfg).Connect(context.Background(), WalletConnectMechanism())
	assert.Equal(t, KindProvider, Normalize(err).Kind)
}
