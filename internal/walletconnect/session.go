package walletconnect

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tidwall/gjson"
	"moff.io/wallet-connector/internal/chains"
	"moff.io/wallet-connector/internal/wallet"
	"moff.io/wallet-connector/pkg/errors"
)

const codeDisconnected = 4900

// Session is an approved relay session. It answers account and chain queries
// locally and relays every other request to the remote wallet.
type Session struct {
	mutex     sync.Mutex
	transport *transport

	peerID   string
	peerMeta clientMeta
	chainID  int64
	accounts []string
}

var _ wallet.RelaySession = (*Session)(nil)

func newSession(t *transport, result *sessionResult, opts wallet.RelayOptions) *Session {
	chainID := result.ChainID
	if chainID == 0 {
		chainID = opts.ChainID
	}
	return &Session{
		transport: t,
		peerID:    result.PeerID,
		peerMeta:  result.PeerMeta,
		chainID:   chainID,
		accounts:  append([]string(nil), result.Accounts...),
	}
}

func (s *Session) Accounts() []string {
	return append([]string(nil), s.accounts...)
}

func (s *Session) ChainID() int64 {
	return s.chainID
}

// PeerName is the remote wallet's self-reported name.
func (s *Session) PeerName() string {
	return s.peerMeta.Name
}

// Ref identifies the session towards the page.
func (s *Session) Ref() string {
	return "walletconnect:" + s.peerID
}

func (s *Session) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	switch method {
	case "eth_accounts", "eth_requestAccounts":
		return json.Marshal(s.accounts)
	case "eth_chainId":
		return json.Marshal(chains.HexID(s.chainID))
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.transport.closed.Load() {
		return nil, &wallet.RPCError{Code: codeDisconnected, Message: "WalletConnect session disconnected"}
	}
	req := newJSONRpcRequest(method, params...)
	if err := s.transport.publish(s.peerID, req); err != nil {
		return nil, err
	}
	stop := s.transport.closeOnDone(ctx)
	payload, err := s.transport.readResponse(req.Id)
	stop()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, errSessionClosed) {
			s.transport.close()
			return nil, &wallet.RPCError{Code: codeDisconnected, Message: "WalletConnect session disconnected"}
		}
		return nil, err
	}
	if errObj := gjson.Get(payload, "error"); errObj.Exists() {
		return nil, rpcErrorFrom(errObj)
	}
	return json.RawMessage(gjson.Get(payload, "result").Raw), nil
}

// Close tells the wallet the session ended and drops the connection.
func (s *Session) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.transport.closed.Load() {
		return nil
	}
	update := newJSONRpcRequest("wc_sessionUpdate", map[string]interface{}{
		"approved": false,
		"chainId":  nil,
		"accounts": nil,
	})
	err := s.transport.publish(s.peerID, update)
	s.transport.close()
	return err
}
