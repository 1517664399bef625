package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceRendersDiscoveredProviders(t *testing.T) {
	r := NewRegistry()
	r.Announce(Announcement{Info: ProviderInfo{UUID: "u1", Name: "Acme Wallet", Icon: "data:image/png;base64,AA"}, Provider: &fakeProvider{}})
	rend := &fakeRenderer{}
	s := NewSurface(r, fakeInjected{provider: &fakeProvider{}}, rend, testConfig("proj"))

	s.Open()
	v := rend.last()
	require.Len(t, v.Wallets, 1)
	assert.Equal(t, "Acme Wallet", v.Wallets[0].Name)
	assert.Equal(t, "installed", v.Wallets[0].Tag)
	assert.Equal(t, Discovered, v.Wallets[0].Mechanism().Kind)
	assert.Empty(t, v.Placeholder)
	require.Len(t, v.Extras, 2)
	assert.False(t, v.Extras[0].Disabled)
	assert.Equal(t, "Scan QR with mobile wallet", v.Extras[0].Description)
}

func TestSurfaceLegacyFallback(t *testing.T) {
	rend := &fakeRenderer{}
	s := NewSurface(NewRegistry(), fakeInjected{provider: &fakeProvider{}}, rend, testConfig(""))

	s.Open()
	v := rend.last()
	require.Len(t, v.Wallets, 1)
	assert.Equal(t, LabelInjected, v.Wallets[0].Name)
	assert.Equal(t, "detected", v.Wallets[0].Tag)
	assert.Equal(t, LegacyInjected, v.Wallets[0].Mechanism().Kind)
	assert.Empty(t, v.Placeholder)
}

func TestSurfaceEmptyState(t *testing.T) {
	rend := &fakeRenderer{}
	s := NewSurface(NewRegistry(), fakeInjected{}, rend, testConfig(""))

	s.Open()
	v := rend.last()
	assert.Empty(t, v.Wallets)
	assert.Equal(t, NoWalletsPlaceholder, v.Placeholder)
	require.Len(t, v.Extras, 2)
	assert.Equal(t, LabelWalletConnect, v.Extras[0].Name)
	assert.True(t, v.Extras[0].Disabled)
	assert.Equal(t, "Coming soon", v.Extras[0].Description)
	assert.Equal(t, LabelCoinbase, v.Extras[1].Name)
}

func TestSurfaceDisabledRowIsInert(t *testing.T) {
	s := NewSurface(NewRegistry(), nil, &fakeRenderer{}, testConfig(""))
	s.Open()
	_, ok := s.Pick(rowWalletConnect)
	assert.False(t, ok)
	m, ok := s.Pick(rowCoinbase)
	require.True(t, ok)
	assert.Equal(t, CoinbaseSDK, m.Kind)
	_, ok = s.Pick("nope")
	assert.False(t, ok)
}

func TestSurfaceOpenTearsDownPrevious(t *testing.T) {
	r := NewRegistry()
	rend := &fakeRenderer{}
	s := NewSurface(r, nil, rend, testConfig(""))

	first := s.Open()
	second := s.Open()
	assert.NotEqual(t, first, second)
	assert.Equal(t, []string{first}, rend.removed)
	assert.Len(t, r.listeners, 1)
	assert.Equal(t, Open, s.State())
}

func TestSurfaceClosesOnce(t *testing.T) {
	r := NewRegistry()
	rend := &fakeRenderer{}
	s := NewSurface(r, nil, rend, testConfig(""))

	assert.False(t, s.Close())
	s.Open()
	assert.True(t, s.Close())
	assert.False(t, s.Close())
	assert.Equal(t, 1, rend.removedCount())
	assert.Equal(t, Closed, s.State())
	assert.Empty(t, r.listeners)

	_, ok := s.Pick(rowCoinbase)
	assert.False(t, ok)
}

func TestSurfaceRefreshesOnAnnouncement(t *testing.T) {
	r := NewRegistry()
	rend := &fakeRenderer{}
	s := NewSurface(r, nil, rend, testConfig(""))
	s.Open()
	s.SetPending("Coinbase Wallet")

	r.Announce(Announcement{Info: ProviderInfo{UUID: "u1", Name: "Acme Wallet"}, Provider: &fakeProvider{}})
	v := rend.last()
	require.Len(t, v.Wallets, 1)
	assert.Equal(t, "Acme Wallet", v.Wallets[0].Name)
	assert.True(t, v.Pending)
	assert.Equal(t, "Coinbase Wallet", v.PendingLabel)

	s.Close()
	renders := len(rend.views)
	r.Announce(Announcement{Info: ProviderInfo{UUID: "u2", Name: "Other"}, Provider: &fakeProvider{}})
	assert.Len(t, rend.views, renders)
}
