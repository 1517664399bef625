package pagebridge

import (
	"context"
	"encoding/json"
)

const injectedRef = "injected"

// remoteProvider is a provider living in the page, addressed by ref.
type remoteProvider struct {
	session *Session
	ref     string
}

func (p *remoteProvider) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	resp, err := p.session.call(ctx, Outbound{
		Type:     typeRequest,
		Provider: p.ref,
		Method:   method,
		Params:   params,
	})
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func (p *remoteProvider) Ref() string {
	return p.ref
}

// referenced is implemented by providers the page can address.
type referenced interface {
	Ref() string
}
