package wallet

import (
	"context"
)

// Adapter connects through one mechanism. Failures may be native errors;
// the orchestrator normalizes them.
type Adapter interface {
	Connect(ctx context.Context, m Mechanism) (*Result, error)
}

// AdapterFunc lets a plain function serve as an Adapter.
type AdapterFunc func(ctx context.Context, m Mechanism) (*Result, error)

func (f AdapterFunc) Connect(ctx context.Context, m Mechanism) (*Result, error) {
	return f(ctx, m)
}

// Adapters is the fixed adapter set, one per MechanismKind.
type Adapters struct {
	Discovered    Adapter
	WalletConnect Adapter
	Coinbase      Adapter
	Injected      Adapter
}

func (a Adapters) forKind(kind MechanismKind) Adapter {
	switch kind {
	case Discovered:
		return a.Discovered
	case WalletConnectRelay:
		return a.WalletConnect
	case CoinbaseSDK:
		return a.Coinbase
	case LegacyInjected:
		return a.Injected
	default:
		return nil
	}
}

// InjectedSource reports the single ambient injected provider, if any.
type InjectedSource interface {
	Injected() (Provider, bool)
}

type discoveredAdapter struct{}

// NewDiscoveredAdapter requests account access on the picked provider's own handle.
func NewDiscoveredAdapter() Adapter {
	return discoveredAdapter{}
}

func (discoveredAdapter) Connect(ctx context.Context, m Mechanism) (*Result, error) {
	if m.Provider == nil || m.Provider.Handle == nil {
		return nil, newError(KindNoProvider, "No wallet detected", nil)
	}
	accounts, err := requestAccounts(ctx, m.Provider.Handle)
	if err != nil {
		return nil, err
	}
	return &Result{Provider: m.Provider.Handle, Accounts: accounts, Label: m.Label()}, nil
}

type injectedAdapter struct {
	source InjectedSource
}

// NewInjectedAdapter connects to the legacy single injected provider.
func NewInjectedAdapter(source InjectedSource) Adapter {
	return &injectedAdapter{source: source}
}

func (a *injectedAdapter) Connect(ctx context.Context, m Mechanism) (*Result, error) {
	var (
		provider Provider
		ok       bool
	)
	if a.source != nil {
		provider, ok = a.source.Injected()
	}
	if !ok || provider == nil {
		return nil, newError(KindNoProvider, "No wallet detected", nil)
	}
	accounts, err := requestAccounts(ctx, provider)
	if err != nil {
		return nil, err
	}
	return &Result{Provider: provider, Accounts: accounts, Label: LabelInjected}, nil
}
