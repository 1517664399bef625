package wallet

import (
	"context"
	"time"

	"moff.io/wallet-connector/internal/config"
)

// RelayOptions scopes a relay session.
type RelayOptions struct {
	ProjectID   string
	ChainID     int64
	RPCURL      string
	Metadata    config.AppMetadata
	BridgeURL   string
	ReadTimeout time.Duration
}

// PairingDisplay shows the pairing URI and its QR PNG for approval from
// another device.
type PairingDisplay func(uri string, qrPNG []byte) error

// RelaySession is an approved relay session; it answers requests for the
// remote wallet.
type RelaySession interface {
	Provider
	Accounts() []string
}

// RelayDialer opens relay sessions and resolves once the remote wallet
// approved or rejected the pairing.
type RelayDialer interface {
	Dial(ctx context.Context, opts RelayOptions, display PairingDisplay) (RelaySession, error)
}

// PairingPresenter renders a pairing surface.
type PairingPresenter interface {
	ShowPairing(uri string, qrPNG []byte) error
}

type walletConnectAdapter struct {
	dialer    RelayDialer
	presenter PairingPresenter
	opts      RelayOptions
}

func NewWalletConnectAdapter(dialer RelayDialer, presenter PairingPresenter, cfg *config.Configuration) Adapter {
	return &walletConnectAdapter{
		dialer:    dialer,
		presenter: presenter,
		opts: RelayOptions{
			ProjectID:   cfg.WalletConnect.ProjectID,
			ChainID:     cfg.ChainID,
			RPCURL:      cfg.RPCURL,
			Metadata:    cfg.AppMetadata,
			BridgeURL:   cfg.WalletConnect.BridgeURL,
			ReadTimeout: cfg.WalletConnect.ReadTimeout,
		},
	}
}

func (a *walletConnectAdapter) Connect(ctx context.Context, m Mechanism) (*Result, error) {
	if a.opts.ProjectID == "" {
		return nil, newError(KindConfiguration, "WalletConnect not configured yet", nil)
	}
	if a.dialer == nil {
		return nil, newError(KindConfiguration, "WalletConnect relay not available", nil)
	}
	display := func(uri string, qrPNG []byte) error {
		if a.presenter == nil {
			return nil
		}
		return a.presenter.ShowPairing(uri, qrPNG)
	}
	session, err := a.dialer.Dial(ctx, a.opts, display)
	if err != nil {
		return nil, err
	}
	accounts := session.Accounts()
	if len(accounts) == 0 {
		return nil, newError(KindProvider, "no wallet accounts acquired", nil)
	}
	return &Result{Provider: session, Accounts: accounts, Label: LabelWalletConnect}, nil
}
