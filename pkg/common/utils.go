package common

import (
	"encoding/json"
	"strings"

	"moff.io/wallet-connector/pkg/log"
)

// MustGetJSONString returns the JSON text of m, or "{}" when it cannot be encoded.
func MustGetJSONString(m interface{}) string {
	if m == nil {
		return "{}"
	}
	data, err := json.Marshal(m)
	if err != nil {
		log.Error(err)
		return "{}"
	}
	return string(data)
}

// TrimIP strips the port from a host:port address.
func TrimIP(ip string) string {
	last := strings.LastIndex(ip, ":")
	if last != -1 {
		ip = ip[0:last]
	}
	return ip
}
