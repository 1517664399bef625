// Package wallet discovers wallet providers, presents them on a selection
// surface and drives exactly one connection attempt at a time to a uniform
// result or error for the host page.
package wallet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

const (
	methodRequestAccounts = "eth_requestAccounts"

	// EIP-1193 provider error codes.
	codeUserRejected = 4001
)

// Provider is an EIP-1193 style capability: it answers JSON-RPC requests on
// behalf of a wallet.
type Provider interface {
	Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)
}

// RPCError is the error a Provider returns when the wallet answered with an
// error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider error %d", e.Code)
	}
	return e.Message
}

// ProviderInfo is the identity metadata carried by a discovery announcement.
type ProviderInfo struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
	RDNS string `json:"rdns,omitempty"`
}

// Announcement is one "provider announced" event.
type Announcement struct {
	Info     ProviderInfo
	Provider Provider
}

// DiscoveredProvider is a provider learned through an announcement.
type DiscoveredProvider struct {
	ID          string
	DisplayName string
	Icon        string
	RDNS        string
	Handle      Provider
}

// Result is the outcome of a successful connection attempt.
type Result struct {
	Provider Provider
	Accounts []string
	Label    string
}

// requestAccounts asks p for account access and decodes the address list.
func requestAccounts(ctx context.Context, p Provider) ([]string, error) {
	raw, err := p.Request(ctx, methodRequestAccounts)
	if err != nil {
		return nil, err
	}
	return parseAccounts(raw)
}

func parseAccounts(raw json.RawMessage) ([]string, error) {
	res := gjson.ParseBytes(raw)
	if !res.IsArray() {
		return nil, newError(KindProvider, fmt.Sprintf("unexpected accounts response: %s", string(raw)), nil)
	}
	accounts := make([]string, 0, len(res.Array()))
	for _, a := range res.Array() {
		accounts = append(accounts, a.String())
	}
	if len(accounts) == 0 {
		return nil, newError(KindProvider, "no wallet accounts acquired", nil)
	}
	return accounts, nil
}
