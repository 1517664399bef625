package walletconnect

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"
	"moff.io/wallet-connector/internal/chains"
	"moff.io/wallet-connector/internal/config"
	"moff.io/wallet-connector/internal/wallet"
	"moff.io/wallet-connector/pkg/common"
	"moff.io/wallet-connector/pkg/errors"
	"moff.io/wallet-connector/pkg/log"
	"moff.io/wallet-connector/pkg/relaycrypto"
)

var (
	errSessionClosed = errors.New("session closed")
)

const (
	codeUserRejected = 4001
	qrCodeSize       = 256
)

type client struct {
	// None zero value means can not call ConnectWallet again, you should recreate client instead.
	connectWalletCount atomic.Int64
	qrGenerated        atomic.Bool

	opts      wallet.RelayOptions
	bridgeURL string

	handshakeTopic string
	clientID       string
	encryptionKey  []byte

	transport *transport
}

func NewClient(opts wallet.RelayOptions) ClientV1 {
	encryptionKey, _ := relaycrypto.GenerateRandomBytes(256 / 8)
	bridgeURL := opts.BridgeURL
	if bridgeURL == "" {
		bridgeURL = relaycrypto.RandomBridgeURL()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = config.DefaultRelayTimeout
	}
	return &client{
		opts:           opts,
		encryptionKey:  encryptionKey,
		bridgeURL:      bridgeURL,
		handshakeTopic: uuid.NewString(),
		clientID:       uuid.NewString(),
	}
}

func (c *client) URI() string {
	return fmt.Sprintf("wc:%s@1?bridge=%s&key=%s",
		c.handshakeTopic, url.QueryEscape(c.bridgeURL), hex.EncodeToString(c.encryptionKey))
}

// GetQRCode 返回用户钱包连接的二维码.
func (c *client) GetQRCode() ([]byte, error) {
	uri := c.URI()
	log.Debugf("wallet connect - generated uri:%v", uri)
	png, err := qrcode.Encode(uri, qrcode.Medium, qrCodeSize)
	if err != nil {
		return nil, errors.WrapAndReport(err, "encode wallet connect qr code")
	}
	c.qrGenerated.Store(true)
	return png, nil
}

func (c *client) ConnectWallet(ctx context.Context, displayQRCode DisplayQRCodeFn) (*Session, error) {
	if !c.connectWalletCount.CAS(0, 1) {
		return nil, errors.NewWithReport("duplicate connect wallet")
	}
	if !c.qrGenerated.Load() {
		return nil, errors.NewWithReport("call GetQRCode first to display")
	}
	if err := c.dialWS(ctx); err != nil {
		return nil, err
	}
	stop := c.transport.closeOnDone(ctx)
	session, err := c.interact(displayQRCode)
	stop()
	if err != nil {
		c.transport.close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return session, nil
}

func (c *client) interact(displayQRCode DisplayQRCodeFn) (*Session, error) {
	if err := c.subscribeSession(); err != nil {
		return nil, err
	}
	requestID, err := c.createSessionRequest()
	if err != nil {
		return nil, err
	}
	if err := displayQRCode(); err != nil {
		return nil, err
	}
	result, err := c.createSessionResponse(requestID)
	if err != nil {
		return nil, err
	}
	return newSession(c.transport, result, c.opts), nil
}

func (c *client) dialWS(ctx context.Context) error {
	wsURL := relaycrypto.GetWebSocketUrl(c.bridgeURL, "wc", "1", c.opts.ProjectID)
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return errors.WrapAndReport(err, "dial to wallet connect bridge url")
	}
	c.transport = &transport{
		conn:        conn,
		clientID:    c.clientID,
		key:         c.encryptionKey,
		readTimeout: c.opts.ReadTimeout,
	}
	return nil
}

func (c *client) subscribeSession() error {
	msg := wcMessage{
		Topic:   c.clientID,
		Type:    "sub",
		Payload: "",
		Silent:  true,
	}
	log.Debugf("wallet connect - subscribe session:%v", string(msg.Marshal()))
	return c.transport.write(msg.Marshal())
}

func (c *client) createSessionRequest() (int64, error) {
	icons := []string{}
	if c.opts.Metadata.IconURL != "" {
		icons = append(icons, c.opts.Metadata.IconURL)
	}
	jsonRpc := newJSONRpcRequest("wc_sessionRequest", peer{
		PeerID: c.clientID,
		PeerMeta: clientMeta{
			Description: c.opts.Metadata.Description,
			URL:         c.opts.Metadata.URL,
			Icons:       icons,
			Name:        c.opts.Metadata.Name,
		},
		ChainID: c.opts.ChainID,
		RPCURL:  c.opts.RPCURL,
	})
	log.Debugf("wallet connect - create session request on %v:%v",
		chains.Name(c.opts.ChainID), common.MustGetJSONString(jsonRpc.Params))
	if err := c.transport.publish(c.handshakeTopic, jsonRpc); err != nil {
		return 0, err
	}
	return jsonRpc.Id, nil
}

func (c *client) createSessionResponse(requestID int64) (*sessionResult, error) {
	payload, err := c.transport.readResponse(requestID)
	if err != nil {
		if errors.Is(err, errSessionClosed) {
			return nil, &wallet.RPCError{Code: codeUserRejected, Message: "Session closed"}
		}
		return nil, err
	}
	log.Debugf("wallet connect - create session response:%v", payload)
	if errObj := gjson.Get(payload, "error"); errObj.Exists() {
		return nil, rpcErrorFrom(errObj)
	}
	var result sessionResult
	if err := json.Unmarshal([]byte(gjson.Get(payload, "result").Raw), &result); err != nil {
		return nil, errors.WrapAndReport(err, "unmarshal wallet info")
	}
	if !result.Approved {
		return nil, &wallet.RPCError{Code: codeUserRejected, Message: "Session Rejected"}
	}
	if len(result.Accounts) == 0 {
		return nil, errors.New("no wallet accounts acquired")
	}
	return &result, nil
}

// rpcErrorFrom converts a JSON-RPC error object. Wallets report a declined
// session as "Session Rejected" without the EIP-1193 code.
func rpcErrorFrom(errObj gjson.Result) *wallet.RPCError {
	message := errObj.Get("message").String()
	if message == "" {
		message = errObj.String()
	}
	code := int(errObj.Get("code").Int())
	if strings.Contains(message, "Session Rejected") || strings.Contains(message, "User rejected") {
		code = codeUserRejected
	}
	return &wallet.RPCError{Code: code, Message: message}
}

// transport is the encrypted websocket channel shared by the handshake and
// the approved session.
type transport struct {
	conn        *websocket.Conn
	clientID    string
	key         []byte
	readTimeout time.Duration
	closed      atomic.Bool
}

func (t *transport) write(payload []byte) error {
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return errors.WrapAndReport(err, "write wallet connect message to server")
	}
	return nil
}

func (t *transport) publish(topic string, req *jsonRpcRequest) error {
	env, err := relaycrypto.Seal([]byte(req.Marshal()), t.key)
	if err != nil {
		return err
	}
	msg := wcMessage{
		Topic:   topic,
		Type:    "pub",
		Payload: marshalEnvelope(env),
		Silent:  req.IsSilentPayload(),
	}
	log.Debugf("wallet connect - publish %v to %v", req.Method, topic)
	return t.write(msg.Marshal())
}

func (t *transport) ack() error {
	msg := wcMessage{
		Topic:   t.clientID,
		Type:    "ack",
		Payload: "",
		Silent:  true,
	}
	return t.write(msg.Marshal())
}

// readResponse reads until the JSON-RPC response carrying id arrives. Other
// payloads are acknowledged and skipped.
func (t *transport) readResponse(id int64) (string, error) {
	for {
		payload, err := t.read()
		if err != nil {
			return "", err
		}
		respID := gjson.Get(payload, "id")
		if respID.Exists() && respID.Int() != id {
			log.Debugf("wallet connect - skipping payload for id %v", respID.Int())
			continue
		}
		if gjson.Get(payload, "method").Exists() {
			continue
		}
		return payload, nil
	}
}

func (t *transport) read() (string, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return "", errors.WrapAndReport(err, "set websocket read timeout")
	}
	msgType, data, err := t.conn.ReadMessage()
	if nil != err {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return "", errSessionClosed
		}
		return "", errors.Wrap(err, "read session response")
	}
	if msgType != websocket.TextMessage {
		return "", errors.NewWithReport("unsupported message type")
	}
	log.Debugf("wallet connect - receive:%v", string(data))
	msg, err := newWCMessageFromBytes(data)
	if err != nil {
		return "", err
	}
	if err := t.ack(); err != nil {
		return "", err
	}
	env, err := newEnvelopeFromString(msg.Payload)
	if err != nil {
		return "", err
	}
	plain, err := relaycrypto.Open(env, t.key)
	if err != nil {
		return "", err
	}
	payload := string(plain)
	if sessionClosed := checkSessionUpdate(payload); sessionClosed {
		return "", errSessionClosed
	}
	return payload, nil
}

// closeOnDone closes the connection when ctx ends, unblocking pending reads.
// The returned func stops the watch.
func (t *transport) closeOnDone(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			t.close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (t *transport) close() {
	if t.closed.CAS(false, true) {
		t.conn.Close()
	}
}

func checkSessionUpdate(jsonRpc string) (sessionClosed bool) {
	if gjson.Get(jsonRpc, "method").String() != "wc_sessionUpdate" {
		return false
	}
	approved := gjson.Get(jsonRpc, "params.0.approved")
	if !approved.Exists() || approved.Bool() {
		return false
	}
	log.Warnf("wallet connect - session closed from request %v", jsonRpc)
	return true
}
