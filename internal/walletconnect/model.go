package walletconnect

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/atomic"
	"moff.io/wallet-connector/pkg/errors"
	"moff.io/wallet-connector/pkg/log"
	"moff.io/wallet-connector/pkg/relaycrypto"
)

// sessionResult is the wallet's answer to wc_sessionRequest.
type sessionResult struct {
	Approved bool       `json:"approved"`
	ChainID  int64      `json:"chainId"`
	Accounts []string   `json:"accounts"`
	PeerID   string     `json:"peerId"`
	PeerMeta clientMeta `json:"peerMeta"`
	RPCURL   string     `json:"rpcUrl,omitempty"`
}

type peer struct {
	PeerID   string      `json:"peerId"`
	PeerMeta clientMeta  `json:"peerMeta"`
	ChainID  interface{} `json:"chainId"`
	RPCURL   string      `json:"rpcUrl,omitempty"`
}

type clientMeta struct {
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Icons       []string `json:"icons"`
	Name        string   `json:"name"`
}

type wcMessage struct {
	Topic string `json:"topic"`
	// pub sub ack
	Type    string `json:"type"`
	Payload string `json:"payload"`
	Silent  bool   `json:"silent"`
}

func newWCMessageFromBytes(data []byte) (*wcMessage, error) {
	var msg wcMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.WrapAndReport(err, "unmarshal wallet connect message")
	}
	return &msg, nil
}

func (msg *wcMessage) Marshal() []byte {
	bytes, _ := json.Marshal(msg)
	return bytes
}

func newEnvelopeFromString(payload string) (*relaycrypto.Envelope, error) {
	var env relaycrypto.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, errors.WrapAndReport(err, "unmarshal wallet connect message payload")
	}
	return &env, nil
}

func marshalEnvelope(env *relaycrypto.Envelope) string {
	s, err := json.Marshal(env)
	if err != nil {
		log.Errorf("marshal:%v", err)
	}
	return string(s)
}

type jsonRpcRequest struct {
	Id      int64         `json:"id"`
	JSONRpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

func newJSONRpcRequest(method string, params ...interface{}) *jsonRpcRequest {
	r := &jsonRpcRequest{
		Id:      payloadID(),
		JSONRpc: "2.0",
		Method:  method,
		Params:  []interface{}{},
	}
	if len(params) > 0 {
		r.Params = params
	}
	return r
}

func (e *jsonRpcRequest) Marshal() string {
	s, err := json.Marshal(e)
	if err != nil {
		log.Errorf("marshal:%v", err)
	}
	return string(s)
}

func (e *jsonRpcRequest) IsSilentPayload() bool {
	return strings.HasPrefix(e.Method, "wc_")
}

var lastPayloadID atomic.Int64

// payloadID returns a strictly increasing microsecond based JSON-RPC id.
func payloadID() int64 {
	for {
		prev := lastPayloadID.Load()
		next := time.Now().UnixNano() / 1000
		if next <= prev {
			next = prev + 1
		}
		if lastPayloadID.CAS(prev, next) {
			return next
		}
	}
}
