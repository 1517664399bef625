package walletconnect

import (
	"context"

	"moff.io/wallet-connector/internal/wallet"
)

// ClientV1 wallet connect交互协议v1版客户端
// 交互流程见文档：https://docs.walletconnect.com/tech-spec#establishing-connection
type ClientV1 interface {

	// URI returns the pairing URI encoded in the QR code.
	URI() string

	// GetQRCode 返回钱包连接的二维码，用以展示给交互的用户
	GetQRCode() ([]byte, error)

	// ConnectWallet publishes the session request, calls displayQRCode and
	// waits for the remote wallet to approve or reject. A rejection is a
	// *wallet.RPCError with code 4001.
	ConnectWallet(ctx context.Context, displayQRCode DisplayQRCodeFn) (*Session, error)
}

// DisplayQRCodeFn 展示二维码的函数
type DisplayQRCodeFn func() error

// Dialer opens relay sessions for the WalletConnect adapter.
type Dialer struct{}

var _ wallet.RelayDialer = Dialer{}

func (Dialer) Dial(ctx context.Context, opts wallet.RelayOptions, display wallet.PairingDisplay) (wallet.RelaySession, error) {
	c := NewClient(opts)
	png, err := c.GetQRCode()
	if err != nil {
		return nil, err
	}
	session, err := c.ConnectWallet(ctx, func() error { return display(c.URI(), png) })
	if err != nil {
		return nil, err
	}
	return session, nil
}
