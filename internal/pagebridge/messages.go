package pagebridge

import (
	"encoding/json"

	"moff.io/wallet-connector/internal/wallet"
)

// Message types sent by the page.
const (
	typeHello    = "hello"
	typeAnnounce = "announce"
	typeResponse = "response"
	typeCommand  = "command"
	typeCall     = "call"
)

// Message types sent to the page.
const (
	typeRequestProviders = "requestProviders"
	typeRequest          = "request"
	typeCoinbase         = "coinbase"
	typeRender           = "render"
	typeRemove           = "remove"
	typePairing          = "pairing"
	typeConnected        = "connected"
	typeError            = "error"
	typeResult           = "result"
)

// Commands of the global command surface.
const (
	commandOpen                 = "open"
	commandClose                = "close"
	commandPick                 = "pick"
	commandConnectDiscovered    = "connectDiscovered"
	commandConnectWalletConnect = "connectWalletConnect"
	commandConnectCoinbase      = "connectCoinbase"
	commandConnectInjected      = "connectInjected"
)

// Inbound is one message from the page.
type Inbound struct {
	Type     string               `json:"type"`
	ID       int64                `json:"id,omitempty"`
	Injected bool                 `json:"injected,omitempty"`
	Info     *wallet.ProviderInfo `json:"info,omitempty"`
	Provider string               `json:"provider,omitempty"`
	Result   json.RawMessage      `json:"result,omitempty"`
	Error    *wallet.RPCError     `json:"error,omitempty"`
	Command  string               `json:"command,omitempty"`
	Index    int                  `json:"index,omitempty"`
	Row      string               `json:"row,omitempty"`
	Method   string               `json:"method,omitempty"`
	Params   []interface{}        `json:"params,omitempty"`
}

// Outbound is one message to the page.
type Outbound struct {
	Type     string                  `json:"type"`
	ID       int64                   `json:"id,omitempty"`
	Provider string                  `json:"provider,omitempty"`
	Method   string                  `json:"method,omitempty"`
	Params   []interface{}           `json:"params,omitempty"`
	Options  *wallet.CoinbaseOptions `json:"options,omitempty"`
	View     *wallet.View            `json:"view,omitempty"`
	Instance string                  `json:"instance,omitempty"`
	URI      string                  `json:"uri,omitempty"`
	QRCode   string                  `json:"qrCode,omitempty"`
	Account  string                  `json:"account,omitempty"`
	Label    string                  `json:"label,omitempty"`
	Message  string                  `json:"message,omitempty"`
	Result   json.RawMessage         `json:"result,omitempty"`
	Error    *wallet.RPCError        `json:"error,omitempty"`
}
