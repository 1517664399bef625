package wallet

import (
	"moff.io/wallet-connector/internal/config"
)

// Dependencies are the external collaborators of one Connector.
type Dependencies struct {
	Discovery Discovery
	Injected  InjectedSource
	Coinbase  CoinbaseFactory
	Relay     RelayDialer
	Renderer  Renderer
	Host      HostBridge
}

// Connector owns the registry, surface and orchestrator of one page.
type Connector struct {
	*Orchestrator
	Registry *Registry
	Surface  *Surface

	discovery Discovery
}

func NewConnector(cfg *config.Configuration, deps Dependencies) *Connector {
	registry := NewRegistry()
	surface := NewSurface(registry, deps.Injected, deps.Renderer, cfg)
	adapters := Adapters{
		Discovered:    NewDiscoveredAdapter(),
		WalletConnect: NewWalletConnectAdapter(deps.Relay, surface, cfg),
		Coinbase:      NewCoinbaseAdapter(deps.Coinbase, cfg),
		Injected:      NewInjectedAdapter(deps.Injected),
	}
	return &Connector{
		Orchestrator: NewOrchestrator(registry, surface, adapters, deps.Host),
		Registry:     registry,
		Surface:      surface,
		discovery:    deps.Discovery,
	}
}

// Start begins provider discovery.
func (c *Connector) Start() {
	if c.discovery != nil {
		c.Registry.Start(c.discovery)
	}
}

// Stop abandons any pending attempt, closes the surface and drops the
// discovery subscription.
func (c *Connector) Stop() {
	c.Orchestrator.Close()
	c.Registry.Stop()
}
