// Package pagebridge connects one browser page to a wallet.Connector over a
// websocket. The page forwards provider announcements and relays provider
// requests; the service pushes surface views and host notifications.
package pagebridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"moff.io/wallet-connector/internal/config"
	"moff.io/wallet-connector/internal/wallet"
	"moff.io/wallet-connector/pkg/errors"
	"moff.io/wallet-connector/pkg/log"
)

var errPageGone = errors.New("page disconnected")

// JSON-RPC error codes for calls the service answers itself.
const (
	codeDisconnected = 4900
	codeInternal     = -32603
)

// Session serves one page.
type Session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	seq       atomic.Int64
	pendingMu sync.Mutex
	pending   map[int64]chan Inbound
	done      chan struct{}

	subsMu sync.Mutex
	subSeq int
	subs   map[int]func(wallet.Announcement)

	injected atomic.Bool

	// providers held by the service, e.g. relay sessions, addressed by ref
	hostedMu sync.Mutex
	hosted   map[string]wallet.Provider

	connector *wallet.Connector
}

func NewSession(conn *websocket.Conn, cfg *config.Configuration, relay wallet.RelayDialer) *Session {
	s := &Session{
		conn:    conn,
		pending: make(map[int64]chan Inbound),
		done:    make(chan struct{}),
		subs:    make(map[int]func(wallet.Announcement)),
		hosted:  make(map[string]wallet.Provider),
	}
	s.connector = wallet.NewConnector(cfg, wallet.Dependencies{
		Discovery: s,
		Injected:  s,
		Coinbase:  s,
		Relay:     relay,
		Renderer:  s,
		Host: wallet.HostBridge{
			OnWalletConnected: s.onConnected,
			OnWalletError:     s.onError,
		},
	})
	return s
}

// Run starts discovery and serves page messages until the page goes away or
// ctx ends.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()
	defer s.shutdown()

	s.connector.Start()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read page message")
		}
		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warnf("pagebridge - malformed message: %v", err)
			continue
		}
		s.dispatch(ctx, msg)
	}
}

func (s *Session) shutdown() {
	close(s.done)
	s.connector.Stop()
	s.hostedMu.Lock()
	defer s.hostedMu.Unlock()
	for ref, p := range s.hosted {
		closeProvider(ref, p)
		delete(s.hosted, ref)
	}
}

// host keeps a service-held provider for page calls. It reports false once
// the session has shut down.
func (s *Session) host(ref string, p wallet.Provider) bool {
	s.hostedMu.Lock()
	defer s.hostedMu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.hosted[ref] = p
	return true
}

func closeProvider(ref string, p wallet.Provider) {
	if c, ok := p.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			log.Warnf("pagebridge - close %v: %v", ref, err)
		}
	}
}

func (s *Session) dispatch(ctx context.Context, msg Inbound) {
	switch msg.Type {
	case typeHello:
		s.injected.Store(msg.Injected)
		log.Debugf("pagebridge - page hello, injected provider present: %v", msg.Injected)
	case typeAnnounce:
		if msg.Info == nil {
			log.Warnf("pagebridge - announcement without info")
			return
		}
		s.announce(wallet.Announcement{
			Info:     *msg.Info,
			Provider: &remoteProvider{session: s, ref: msg.Provider},
		})
	case typeResponse:
		s.resolve(msg)
	case typeCommand:
		s.command(ctx, msg)
	case typeCall:
		go s.serveCall(ctx, msg)
	default:
		log.Warnf("pagebridge - unknown message type %q", msg.Type)
	}
}

func (s *Session) command(ctx context.Context, msg Inbound) {
	switch msg.Command {
	case commandOpen:
		s.connector.RequestConnection()
		return
	case commandClose:
		s.connector.Close()
		return
	}
	var run func() error
	switch msg.Command {
	case commandPick:
		run = func() error { return s.connector.PickRow(ctx, msg.Row) }
	case commandConnectDiscovered:
		run = func() error { return s.connector.ConnectDiscovered(ctx, msg.Index) }
	case commandConnectWalletConnect:
		run = func() error { return s.connector.ConnectWalletConnect(ctx) }
	case commandConnectCoinbase:
		run = func() error { return s.connector.ConnectCoinbase(ctx) }
	case commandConnectInjected:
		run = func() error { return s.connector.ConnectInjected(ctx) }
	default:
		log.Warnf("pagebridge - unknown command %q", msg.Command)
		return
	}
	// attempts block on provider responses, which arrive through this read loop
	go func() {
		if err := run(); err != nil {
			log.Warnf("pagebridge - %v ignored: %v", msg.Command, err)
		}
	}()
}

func (s *Session) send(msg Outbound) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		return errors.Wrapf(err, "write %v to page", msg.Type)
	}
	return nil
}

// call sends msg with a fresh id and waits for the page's response.
func (s *Session) call(ctx context.Context, msg Outbound) (Inbound, error) {
	id := s.seq.Inc()
	msg.ID = id
	ch := make(chan Inbound, 1)
	s.pendingMu.Lock()
	s.pending[id] = ch
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
	}()

	if err := s.send(msg); err != nil {
		return Inbound{}, err
	}
	select {
	case resp := <-ch:
		if resp.Error != nil {
			return Inbound{}, resp.Error
		}
		return resp, nil
	case <-ctx.Done():
		return Inbound{}, ctx.Err()
	case <-s.done:
		return Inbound{}, errPageGone
	}
}

func (s *Session) resolve(msg Inbound) {
	s.pendingMu.Lock()
	ch, ok := s.pending[msg.ID]
	s.pendingMu.Unlock()
	if !ok {
		log.Debugf("pagebridge - response for unknown request %v", msg.ID)
		return
	}
	select {
	case ch <- msg:
	default:
		log.Warnf("pagebridge - duplicate response for request %v", msg.ID)
	}
}

// Subscribe implements wallet.Discovery.
func (s *Session) Subscribe(handler func(wallet.Announcement)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.subSeq
	s.subSeq++
	s.subs[id] = handler
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

// RequestProviders implements wallet.Discovery.
func (s *Session) RequestProviders() {
	if err := s.send(Outbound{Type: typeRequestProviders}); err != nil {
		log.Warn(err)
	}
}

func (s *Session) announce(a wallet.Announcement) {
	s.subsMu.Lock()
	handlers := make([]func(wallet.Announcement), 0, len(s.subs))
	for _, h := range s.subs {
		handlers = append(handlers, h)
	}
	s.subsMu.Unlock()
	for _, h := range handlers {
		h(a)
	}
}

// Injected implements wallet.InjectedSource.
func (s *Session) Injected() (wallet.Provider, bool) {
	if !s.injected.Load() {
		return nil, false
	}
	return &remoteProvider{session: s, ref: injectedRef}, true
}

// MakeWeb3Provider implements wallet.CoinbaseFactory by asking the page to build
// the SDK provider.
func (s *Session) MakeWeb3Provider(ctx context.Context, opts wallet.CoinbaseOptions) (wallet.Provider, error) {
	resp, err := s.call(ctx, Outbound{Type: typeCoinbase, Options: &opts})
	if err != nil {
		return nil, err
	}
	if resp.Provider == "" {
		return nil, errors.New("Coinbase Wallet SDK returned no provider")
	}
	return &remoteProvider{session: s, ref: resp.Provider}, nil
}

// Render implements wallet.Renderer.
func (s *Session) Render(v wallet.View) {
	if err := s.send(Outbound{Type: typeRender, View: &v}); err != nil {
		log.Warn(err)
	}
}

// Remove implements wallet.Renderer.
func (s *Session) Remove(instance string) {
	if err := s.send(Outbound{Type: typeRemove, Instance: instance}); err != nil {
		log.Warn(err)
	}
}

// ShowPairing implements wallet.Renderer.
func (s *Session) ShowPairing(instance, uri string, qrPNG []byte) error {
	return s.send(Outbound{
		Type:     typePairing,
		Instance: instance,
		URI:      uri,
		QRCode:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// serveCall answers a page request addressed to a provider the service holds.
func (s *Session) serveCall(ctx context.Context, msg Inbound) {
	s.hostedMu.Lock()
	provider, ok := s.hosted[msg.Provider]
	s.hostedMu.Unlock()
	reply := Outbound{Type: typeResult, ID: msg.ID}
	if !ok {
		reply.Error = &wallet.RPCError{Code: codeDisconnected, Message: "unknown provider " + msg.Provider}
	} else if result, err := provider.Request(ctx, msg.Method, msg.Params...); err != nil {
		var rpcErr *wallet.RPCError
		if errors.As(err, &rpcErr) {
			reply.Error = rpcErr
		} else {
			reply.Error = &wallet.RPCError{Code: codeInternal, Message: err.Error()}
		}
	} else {
		reply.Result = result
	}
	if err := s.send(reply); err != nil {
		log.Warn(err)
	}
}

func (s *Session) onConnected(provider wallet.Provider, account, label string) {
	ref := ""
	if r, ok := provider.(referenced); ok {
		ref = r.Ref()
		if _, remote := provider.(*remoteProvider); !remote && !s.host(ref, provider) {
			log.Infof("pagebridge - %v connected after page left, closing", ref)
			closeProvider(ref, provider)
			return
		}
	}
	if err := s.send(Outbound{Type: typeConnected, Provider: ref, Account: account, Label: label}); err != nil {
		log.Warn(err)
	}
}

func (s *Session) onError(message string) {
	if err := s.send(Outbound{Type: typeError, Message: message}); err != nil {
		log.Warn(err)
	}
}
