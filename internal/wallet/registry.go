package wallet

import (
	"sync"

	"moff.io/wallet-connector/pkg/log"
)

// Discovery is the announcement-based discovery protocol. It is push-only and
// has no unregister signal.
type Discovery interface {
	// Subscribe registers handler for every announcement until unsubscribe is called.
	Subscribe(handler func(Announcement)) (unsubscribe func())
	// RequestProviders broadcasts a request so already loaded providers announce again.
	RequestProviders()
}

// Registry is the deduplicated, insertion-ordered ledger of discovered providers.
type Registry struct {
	mutex     sync.RWMutex
	providers []*DiscoveredProvider

	listenerSeq int
	listeners   map[int]func(*DiscoveredProvider)

	unsubscribe func()
}

func NewRegistry() *Registry {
	return &Registry{listeners: make(map[int]func(*DiscoveredProvider))}
}

// Start subscribes to d and immediately requests providers. The subscription
// is held until Stop.
func (r *Registry) Start(d Discovery) {
	unsubscribe := d.Subscribe(func(a Announcement) { r.Announce(a) })
	r.mutex.Lock()
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	r.unsubscribe = unsubscribe
	r.mutex.Unlock()
	d.RequestProviders()
}

func (r *Registry) Stop() {
	r.mutex.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mutex.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Announce records a provider. A known id is ignored, not merged. Reports
// whether the provider was new.
func (r *Registry) Announce(a Announcement) bool {
	if a.Info.UUID == "" || a.Provider == nil {
		log.Warnf("wallet - ignoring malformed announcement %q", a.Info.Name)
		return false
	}
	r.mutex.Lock()
	for _, p := range r.providers {
		if p.ID == a.Info.UUID {
			r.mutex.Unlock()
			return false
		}
	}
	p := &DiscoveredProvider{
		ID:          a.Info.UUID,
		DisplayName: a.Info.Name,
		Icon:        a.Info.Icon,
		RDNS:        a.Info.RDNS,
		Handle:      a.Provider,
	}
	r.providers = append(r.providers, p)
	listeners := make([]func(*DiscoveredProvider), 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.mutex.Unlock()

	log.Debugf("wallet - discovered provider %v (%v)", p.DisplayName, p.ID)
	for _, l := range listeners {
		l(p)
	}
	return true
}

// Snapshot returns the providers in announcement order.
func (r *Registry) Snapshot() []*DiscoveredProvider {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]*DiscoveredProvider, len(r.providers))
	copy(out, r.providers)
	return out
}

// At returns the provider at index of the current snapshot.
func (r *Registry) At(index int) (*DiscoveredProvider, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if index < 0 || index >= len(r.providers) {
		return nil, false
	}
	return r.providers[index], true
}

// OnChange registers cb for every newly added provider.
func (r *Registry) OnChange(cb func(*DiscoveredProvider)) (unsubscribe func()) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	id := r.listenerSeq
	r.listenerSeq++
	r.listeners[id] = cb
	return func() {
		r.mutex.Lock()
		defer r.mutex.Unlock()
		delete(r.listeners, id)
	}
}
