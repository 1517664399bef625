package wallet

// MechanismKind names one of the four connection mechanisms.
type MechanismKind int

const (
	Discovered MechanismKind = iota + 1
	WalletConnectRelay
	CoinbaseSDK
	LegacyInjected
)

const (
	LabelWalletConnect = "WalletConnect"
	LabelCoinbase      = "Coinbase Wallet"
	LabelInjected      = "Browser Wallet"
)

func (k MechanismKind) String() string {
	switch k {
	case Discovered:
		return "discovered"
	case WalletConnectRelay:
		return "walletconnect"
	case CoinbaseSDK:
		return "coinbase"
	case LegacyInjected:
		return "injected"
	default:
		return "unknown"
	}
}

// Mechanism is the variant chosen for one connection attempt. Provider is set
// only for Discovered.
type Mechanism struct {
	Kind     MechanismKind
	Provider *DiscoveredProvider
}

func DiscoveredMechanism(p *DiscoveredProvider) Mechanism {
	return Mechanism{Kind: Discovered, Provider: p}
}

func WalletConnectMechanism() Mechanism { return Mechanism{Kind: WalletConnectRelay} }

func CoinbaseMechanism() Mechanism { return Mechanism{Kind: CoinbaseSDK} }

func InjectedMechanism() Mechanism { return Mechanism{Kind: LegacyInjected} }

// Label is the name reported to the host for a successful connection.
func (m Mechanism) Label() string {
	switch m.Kind {
	case Discovered:
		if m.Provider != nil {
			return m.Provider.DisplayName
		}
		return ""
	case WalletConnectRelay:
		return LabelWalletConnect
	case CoinbaseSDK:
		return LabelCoinbase
	case LegacyInjected:
		return LabelInjected
	default:
		return ""
	}
}
