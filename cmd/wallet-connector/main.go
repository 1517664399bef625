package main

import (
	"time"

	"moff.io/wallet-connector/internal/config"
	"moff.io/wallet-connector/internal/http"
	"moff.io/wallet-connector/internal/walletconnect"
	"moff.io/wallet-connector/pkg/errors"
	"moff.io/wallet-connector/pkg/log"
)

func main() {
	log.Infof("Starting wallet connector")
	startApp()
}

func startApp() {
	defer func() {
		if i := recover(); i != nil {
			log.Fatal(errors.ErrorfAndReport("%v", i))
		}
	}()
	config.Read()
	log.SetLevel(config.Global.LogLevel)
	if config.Global.SentryDSN != "" {
		if err := errors.NewSentryReporter(config.Global.SentryDSN); err != nil {
			log.Error(err)
		}
	}
	if config.Global.LarkAlarmWebhook != "" {
		errors.NewLarkReporter(config.Global.LarkAlarmWebhook, time.Minute)
	}
	if !config.Global.WalletConnectEnabled() {
		log.Warn("WalletConnect project id not set, relay pairing disabled")
	}
	http.NewServer(config.Global, walletconnect.Dialer{})
}
