package wallet

import (
	"context"

	"moff.io/wallet-connector/internal/chains"
	"moff.io/wallet-connector/internal/config"
	"moff.io/wallet-connector/pkg/errors"
)

// CoinbaseOptions binds a Coinbase SDK provider to the app and chain.
type CoinbaseOptions struct {
	AppName    string `json:"appName"`
	AppLogoURL string `json:"appLogoUrl"`
	RPCURL     string `json:"rpcUrl"`
	ChainID    int64  `json:"chainId"`
	ChainIDHex string `json:"chainIdHex"`
}

// CoinbaseFactory builds Coinbase Wallet providers.
type CoinbaseFactory interface {
	MakeWeb3Provider(ctx context.Context, opts CoinbaseOptions) (Provider, error)
}

type coinbaseAdapter struct {
	sdk  CoinbaseFactory
	opts CoinbaseOptions
}

func NewCoinbaseAdapter(sdk CoinbaseFactory, cfg *config.Configuration) Adapter {
	return &coinbaseAdapter{
		sdk: sdk,
		opts: CoinbaseOptions{
			AppName:    cfg.AppMetadata.Name,
			AppLogoURL: cfg.AppMetadata.IconURL,
			RPCURL:     cfg.RPCURL,
			ChainID:    cfg.ChainID,
			ChainIDHex: chains.HexID(cfg.ChainID),
		},
	}
}

func (a *coinbaseAdapter) Connect(ctx context.Context, m Mechanism) (*Result, error) {
	if a.sdk == nil {
		return nil, newError(KindConfiguration, "Coinbase Wallet SDK not available", nil)
	}
	provider, err := a.sdk.MakeWeb3Provider(ctx, a.opts)
	if err != nil {
		return nil, errors.Wrap(err, "make coinbase provider")
	}
	accounts, err := requestAccounts(ctx, provider)
	if err != nil {
		return nil, err
	}
	return &Result{Provider: provider, Accounts: accounts, Label: LabelCoinbase}, nil
}
