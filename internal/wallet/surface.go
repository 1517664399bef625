package wallet

import (
	"sync"

	"github.com/google/uuid"
	"moff.io/wallet-connector/internal/config"
	"moff.io/wallet-connector/pkg/log"
)

type SurfaceState int

const (
	Closed SurfaceState = iota
	Open
)

func (s SurfaceState) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

const (
	rowWalletConnect = "walletconnect"
	rowCoinbase      = "coinbase"
	rowInjected      = "injected"
	rowDiscovered    = "discovered:"

	NoWalletsPlaceholder = "No browser wallets detected. Use WalletConnect or Coinbase below."
)

// Row is one selectable option of the surface.
type Row struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Tag         string `json:"tag,omitempty"`
	Disabled    bool   `json:"disabled,omitempty"`

	mechanism Mechanism
}

func (r Row) Mechanism() Mechanism {
	return r.mechanism
}

type Footer struct {
	Text     string `json:"text"`
	LinkText string `json:"linkText"`
	LinkURL  string `json:"linkUrl"`
}

// View is what the renderer draws for one surface instance.
type View struct {
	Instance     string `json:"instance"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Wallets      []Row  `json:"wallets"`
	Placeholder  string `json:"placeholder,omitempty"`
	Extras       []Row  `json:"extras"`
	Pending      bool   `json:"pending,omitempty"`
	PendingLabel string `json:"pendingLabel,omitempty"`
	Footer       Footer `json:"footer"`
}

// Renderer draws surface instances on the page.
type Renderer interface {
	Render(v View)
	Remove(instance string)
	ShowPairing(instance, uri string, qrPNG []byte) error
}

// Surface is the transient selection surface. At most one instance is open.
type Surface struct {
	mutex     sync.Mutex
	registry  *Registry
	injected  InjectedSource
	renderer  Renderer
	wcEnabled bool

	state       SurfaceState
	view        View
	unsubscribe func()
}

func NewSurface(registry *Registry, injected InjectedSource, renderer Renderer, cfg *config.Configuration) *Surface {
	return &Surface{
		registry:  registry,
		injected:  injected,
		renderer:  renderer,
		wcEnabled: cfg.WalletConnectEnabled(),
	}
}

// Open tears down any open instance and renders a fresh one. Returns the new
// instance id.
func (s *Surface) Open() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state == Open {
		s.teardown()
	}
	instance := uuid.NewString()
	s.state = Open
	s.view = s.buildView(instance)
	s.unsubscribe = s.registry.OnChange(func(*DiscoveredProvider) { s.refresh(instance) })
	s.renderer.Render(s.view)
	log.Debugf("wallet - surface %v opened with %d wallets", instance, len(s.view.Wallets))
	return instance
}

// Close hides the open instance. Reports whether a transition happened.
func (s *Surface) Close() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != Open {
		return false
	}
	s.teardown()
	return true
}

func (s *Surface) teardown() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.renderer.Remove(s.view.Instance)
	log.Debugf("wallet - surface %v closed", s.view.Instance)
	s.state = Closed
	s.view = View{}
}

func (s *Surface) State() SurfaceState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// View returns the currently rendered view; zero when closed.
func (s *Surface) View() View {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.view
}

// Pick resolves a row of the open instance. Disabled rows are inert.
func (s *Surface) Pick(rowID string) (Mechanism, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != Open {
		return Mechanism{}, false
	}
	for _, rows := range [][]Row{s.view.Wallets, s.view.Extras} {
		for _, r := range rows {
			if r.ID == rowID {
				if r.Disabled {
					return Mechanism{}, false
				}
				return r.mechanism, true
			}
		}
	}
	return Mechanism{}, false
}

// SetPending marks the open instance as waiting on label.
func (s *Surface) SetPending(label string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != Open {
		return
	}
	s.view.Pending = label != ""
	s.view.PendingLabel = label
	s.renderer.Render(s.view)
}

// ShowPairing presents a relay pairing URI on the current instance, or on its
// own when no instance is open.
func (s *Surface) ShowPairing(uri string, qrPNG []byte) error {
	s.mutex.Lock()
	instance := s.view.Instance
	s.mutex.Unlock()
	return s.renderer.ShowPairing(instance, uri, qrPNG)
}

func (s *Surface) refresh(instance string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != Open || s.view.Instance != instance {
		return
	}
	pending, label := s.view.Pending, s.view.PendingLabel
	s.view = s.buildView(instance)
	s.view.Pending, s.view.PendingLabel = pending, label
	s.renderer.Render(s.view)
}

func (s *Surface) buildView(instance string) View {
	v := View{
		Instance: instance,
		Title:    "Connect Wallet",
		Subtitle: "Choose how to connect",
		Wallets:  s.walletRows(),
		Extras:   s.extraRows(),
		Footer: Footer{
			Text:     "Don't have a wallet?",
			LinkText: "Get Coinbase Wallet",
			LinkURL:  "https://www.coinbase.com/wallet",
		},
	}
	if len(v.Wallets) == 0 {
		v.Placeholder = NoWalletsPlaceholder
	}
	return v
}

func (s *Surface) walletRows() []Row {
	snapshot := s.registry.Snapshot()
	if len(snapshot) > 0 {
		rows := make([]Row, 0, len(snapshot))
		for _, p := range snapshot {
			rows = append(rows, Row{
				ID:        rowDiscovered + p.ID,
				Name:      p.DisplayName,
				Icon:      p.Icon,
				Tag:       "installed",
				mechanism: DiscoveredMechanism(p),
			})
		}
		return rows
	}
	if s.injected != nil {
		if p, ok := s.injected.Injected(); ok && p != nil {
			return []Row{{
				ID:        rowInjected,
				Name:      LabelInjected,
				Tag:       "detected",
				mechanism: InjectedMechanism(),
			}}
		}
	}
	return []Row{}
}

func (s *Surface) extraRows() []Row {
	wc := Row{
		ID:          rowWalletConnect,
		Name:        LabelWalletConnect,
		Description: "Scan QR with mobile wallet",
		mechanism:   WalletConnectMechanism(),
	}
	if !s.wcEnabled {
		wc.Disabled = true
		wc.Description = "Coming soon"
	}
	return []Row{wc, {
		ID:          rowCoinbase,
		Name:        LabelCoinbase,
		Description: "Connect via Coinbase app",
		mechanism:   CoinbaseMechanism(),
	}}
}
