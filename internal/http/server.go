package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"moff.io/wallet-connector/internal/chains"
	"moff.io/wallet-connector/internal/config"
	"moff.io/wallet-connector/internal/pagebridge"
	"moff.io/wallet-connector/internal/wallet"
	"moff.io/wallet-connector/pkg/common"
	"moff.io/wallet-connector/pkg/concurrent"
	"moff.io/wallet-connector/pkg/log"
	"moff.io/wallet-connector/pkg/log/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// pages are served from other origins, e.g. eth.limo gateways
	CheckOrigin: func(r *http.Request) bool { return true },
}

type server struct {
	cfg      *config.Configuration
	relay    wallet.RelayDialer
	sessions concurrent.Limiter
}

// NewRouter builds the gin engine serving page bridges.
func NewRouter(cfg *config.Configuration, relay wallet.RelayDialer) *gin.Engine {
	s := &server{
		cfg:      cfg,
		relay:    relay,
		sessions: concurrent.NewLimiter(cfg.HTTP.MaxSessions),
	}
	router := gin.New()
	router.Use(middleware.RecoveredHTTPLog())
	router.GET("/hello", s.hello)
	router.GET("/ws", s.serveBridge)
	return router
}

// NewServer serves until the listener fails.
func NewServer(cfg *config.Configuration, relay wallet.RelayDialer) {
	router := NewRouter(cfg, relay)
	log.Infof("Serving page bridge on %v", cfg.HTTP.Addr)
	if err := router.Run(cfg.HTTP.Addr); err != nil {
		log.Fatal(err)
	}
}

func (s *server) hello(ctx *gin.Context) {
	ctx.JSONP(http.StatusOK, map[string]interface{}{
		"chainId":       chains.HexID(s.cfg.ChainID),
		"chain":         chains.Name(s.cfg.ChainID),
		"walletConnect": s.cfg.WalletConnectEnabled(),
		"sessions":      s.sessions.Working(),
	})
}

func (s *server) serveBridge(ctx *gin.Context) {
	if !s.sessions.TryAdd() {
		ctx.JSONP(http.StatusServiceUnavailable, map[string]interface{}{
			"error": "too many page sessions",
		})
		return
	}
	defer s.sessions.Done()
	remote := common.TrimIP(ctx.Request.RemoteAddr)

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warnf("http - upgrade page bridge: %v", err)
		return
	}
	log.Infof("http - page session from %v", remote)
	session := pagebridge.NewSession(conn, s.cfg, s.relay)
	if err := session.Run(ctx.Request.Context()); err != nil {
		log.Warnf("http - page session from %v: %v", remote, err)
	}
	log.Debugf("http - page session from %v ended", remote)
}
