package wallet

// HostBridge is the notification contract implemented by the host page.
// Either handler may be nil.
type HostBridge struct {
	OnWalletConnected func(provider Provider, account, label string)
	OnWalletError     func(message string)
}

func (h HostBridge) connected(provider Provider, account, label string) {
	if h.OnWalletConnected != nil {
		h.OnWalletConnected(provider, account, label)
	}
}

func (h HostBridge) failed(message string) {
	if h.OnWalletError != nil {
		h.OnWalletError(message)
	}
}
