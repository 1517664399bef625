package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"moff.io/wallet-connector/pkg/errors"
	"moff.io/wallet-connector/pkg/log"
)

type httpInfo struct {
	Headers       map[string]string `json:"headers"`
	Method        string            `json:"method"`
	RequestAPI    string            `json:"request_api,omitempty"`
	RemoteAddr    string            `json:"remote_addr,omitempty"`
	Status        int               `json:"status"`
	ExecutionTime string            `json:"execution_time,omitempty"`
}

func newHTTPInfo(ctx *gin.Context) *httpInfo {
	return &httpInfo{
		Headers:    requestHeaderFilter(ctx.Request.Header),
		Method:     ctx.Request.Method,
		RequestAPI: ctx.Request.RequestURI,
		RemoteAddr: ctx.ClientIP(),
	}
}

// RecoveredHTTPLog logs every request once it completes and reports handler
// panics. Page bridge requests are logged when the page session ends.
func RecoveredHTTPLog() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				log.Error(errors.ErrorfAndReport("%v", r))
				if !ctx.Writer.Written() {
					ctx.AbortWithStatusJSON(http.StatusInternalServerError, map[string]interface{}{
						"error": "Server internal error",
					})
				}
			}
			logHTTP(ctx, start)
		}()
		ctx.Next()
	}
}

func logHTTP(ctx *gin.Context, start time.Time) {
	info := newHTTPInfo(ctx)
	info.Status = ctx.Writer.Status()
	info.ExecutionTime = fmt.Sprintf("%vms", time.Since(start).Nanoseconds()/1e6)
	switch {
	case info.Status < http.StatusBadRequest:
		log.Info(info)
	case info.Status >= http.StatusInternalServerError:
		log.Error(info)
	default:
		log.Warn(info)
	}
}

var excludedHeaders = map[string]bool{
	"cookie":                true,
	"authorization":         true,
	"sec-websocket-key":     true,
	"sec-websocket-version": true,
}

func requestHeaderFilter(headers map[string][]string) map[string]string {
	filtered := make(map[string]string)
	for k, v := range headers {
		k = strings.ToLower(k)
		if excludedHeaders[k] {
			continue
		}
		filtered[k] = strings.Join(v, ";")
	}
	return filtered
}
