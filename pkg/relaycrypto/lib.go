package relaycrypto

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"
)

const (
	alphanumerical  = "abcdefghijklmnopqrstuvwxyz0123456789"
	bridgeURLFormat = "https://%v.bridge.walletconnect.org"
)

var bridgeRand = rand.New(rand.NewSource(time.Now().UnixNano()))

func RandomBridgeURL() string {
	c := alphanumerical[bridgeRand.Intn(len(alphanumerical))]
	return fmt.Sprintf(bridgeURLFormat, string(c))
}

// GetWebSocketUrl turns a bridge URL into the websocket endpoint for the
// given protocol and version. A non-empty projectID is passed along so the
// relay can attribute the session.
func GetWebSocketUrl(bridgeURL, protocol, version, projectID string) string {
	switch {
	case strings.HasPrefix(bridgeURL, "https"):
		bridgeURL = strings.Replace(bridgeURL, "https", "wss", 1)
	case strings.HasPrefix(bridgeURL, "http"):
		bridgeURL = strings.Replace(bridgeURL, "http", "ws", 1)
	}
	q := url.Values{}
	q.Set("protocol", protocol)
	q.Set("version", version)
	q.Set("env", "browser")
	if projectID != "" {
		q.Set("projectId", projectID)
	}
	return bridgeURL + "?" + q.Encode()
}
