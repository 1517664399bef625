package wallet

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"moff.io/wallet-connector/pkg/errors"
	"moff.io/wallet-connector/pkg/log"
)

// attempt is the token of one in-flight connection attempt.
type attempt struct {
	id        string
	mechanism Mechanism
	cancel    context.CancelFunc
	// claimed by whichever of Close and the settling attempt comes first
	settled atomic.Bool
}

// Orchestrator drives the flow from surface to adapter to host. It is the
// only caller of the HostBridge.
type Orchestrator struct {
	registry *Registry
	surface  *Surface
	adapters Adapters
	host     HostBridge

	// Non zero value means an attempt is in flight and new picks are ignored.
	inFlight atomic.Bool

	mutex   sync.Mutex
	attempt *attempt
}

func NewOrchestrator(registry *Registry, surface *Surface, adapters Adapters, host HostBridge) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		surface:  surface,
		adapters: adapters,
		host:     host,
	}
}

// RequestConnection opens the selection surface. It is a no-op while an
// attempt is pending.
func (o *Orchestrator) RequestConnection() bool {
	if o.inFlight.Load() {
		log.Debugf("wallet - open ignored, connection attempt pending")
		return false
	}
	o.surface.Open()
	return true
}

// Close hides the surface and abandons the pending attempt, if any. An
// abandoned attempt notifies neither handler.
func (o *Orchestrator) Close() {
	o.mutex.Lock()
	at := o.attempt
	o.mutex.Unlock()
	if at != nil && at.settled.CAS(false, true) {
		log.Infof("wallet - connection attempt %v via %v abandoned", at.id, at.mechanism.Kind)
		at.cancel()
	}
	o.surface.Close()
}

// Pending reports whether a connection attempt is in flight.
func (o *Orchestrator) Pending() bool {
	return o.inFlight.Load()
}

// PickRow routes a surface row to HandlePick. Disabled and unknown rows are inert.
func (o *Orchestrator) PickRow(ctx context.Context, rowID string) error {
	m, ok := o.surface.Pick(rowID)
	if !ok {
		return ErrUnknownRow
	}
	return o.HandlePick(ctx, m)
}

// ConnectDiscovered connects to the provider at index of the registry snapshot.
func (o *Orchestrator) ConnectDiscovered(ctx context.Context, index int) error {
	p, ok := o.registry.At(index)
	if !ok {
		return errors.Wrapf(ErrUnknownRow, "no discovered wallet at index %d", index)
	}
	return o.HandlePick(ctx, DiscoveredMechanism(p))
}

func (o *Orchestrator) ConnectWalletConnect(ctx context.Context) error {
	return o.HandlePick(ctx, WalletConnectMechanism())
}

func (o *Orchestrator) ConnectCoinbase(ctx context.Context) error {
	return o.HandlePick(ctx, CoinbaseMechanism())
}

func (o *Orchestrator) ConnectInjected(ctx context.Context) error {
	return o.HandlePick(ctx, InjectedMechanism())
}

// HandlePick runs one connection attempt through the adapter matching m and
// blocks until it settles. The outcome goes to the HostBridge only; the
// returned error reports a pick that was rejected before any adapter ran.
func (o *Orchestrator) HandlePick(ctx context.Context, m Mechanism) error {
	if !o.inFlight.CAS(false, true) {
		log.Warnf("wallet - %v pick ignored, connection attempt pending", m.Kind)
		return ErrAttemptPending
	}
	defer o.inFlight.Store(false)

	actx, cancel := context.WithCancel(ctx)
	defer cancel()
	at := &attempt{id: uuid.NewString(), mechanism: m, cancel: cancel}
	o.mutex.Lock()
	o.attempt = at
	o.mutex.Unlock()
	defer func() {
		o.mutex.Lock()
		o.attempt = nil
		o.mutex.Unlock()
	}()

	log.Infof("wallet - connection attempt %v via %v", at.id, m.Kind)
	o.surface.SetPending(m.Label())
	res, err := o.invoke(actx, m)
	if !at.settled.CAS(false, true) {
		log.Infof("wallet - connection attempt %v settled after abandonment, outcome dropped", at.id)
		if err == nil {
			closeProvider(res.Provider)
		}
		return nil
	}
	o.surface.Close()
	if err != nil {
		ce := Normalize(err)
		log.Errorf("wallet - %v connect error (%v): %v", m.Kind, ce.Kind, ce.Message)
		o.host.failed(ce.Message)
		return nil
	}
	label := res.Label
	if label == "" {
		label = m.Label()
	}
	log.Infof("wallet - connected %v via %v", res.Accounts[0], label)
	o.host.connected(res.Provider, res.Accounts[0], label)
	return nil
}

// invoke calls the adapter for m, converting panics and empty results into errors.
func (o *Orchestrator) invoke(ctx context.Context, m Mechanism) (res *Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			res, err = nil, errors.ErrorfAndReport("%v adapter panic: %v", m.Kind, v)
		}
	}()
	adapter := o.adapters.forKind(m.Kind)
	if adapter == nil {
		return nil, newError(KindUnknown, "unsupported connection method: "+m.Kind.String(), nil)
	}
	res, err = adapter.Connect(ctx, m)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Accounts) == 0 {
		return nil, newError(KindProvider, "no wallet accounts acquired", nil)
	}
	return res, nil
}

// closeProvider releases a provider nobody will receive, e.g. a relay session
// approved after its attempt was abandoned.
func closeProvider(p Provider) {
	if c, ok := p.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			log.Warnf("wallet - close dropped provider: %v", err)
		}
	}
}
