package config

import (
	"flag"
	"io/ioutil"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
	"moff.io/wallet-connector/pkg/errors"
)

const (
	DefaultChainID        = 8453
	DefaultRPCURL         = "https://mainnet.base.org"
	DefaultHTTPAddr       = ":8080"
	DefaultMaxSessions    = 64
	DefaultRelayTimeout   = 5 * time.Minute
	DefaultAppName        = "ARCA Presale"
	DefaultAppDescription = "Community presale for $ARCA token on Base"
	DefaultAppURL         = "https://arcabot.eth.limo"
	DefaultAppIconURL     = "https://arcabot.eth.limo/avatar.png"
)

// Configuration struct
type Configuration struct {
	ChainID          int64         `yaml:"chain_id"`
	RPCURL           string        `yaml:"rpc_url"`
	WalletConnect    WalletConnect `yaml:"wallet_connect"`
	AppMetadata      AppMetadata   `yaml:"app_metadata"`
	HTTP             HTTP          `yaml:"http"`
	LogLevel         int           `yaml:"log_level"`
	SentryDSN        string        `yaml:"sentry_dsn"`
	LarkAlarmWebhook string        `yaml:"lark_alarm_webhook"`
}

// WalletConnectEnabled reports whether a relay project id is configured.
func (in *Configuration) WalletConnectEnabled() bool {
	return in.WalletConnect.ProjectID != ""
}

type WalletConnect struct {
	ProjectID string `yaml:"project_id"`
	// Empty picks a random public bridge per session.
	BridgeURL   string        `yaml:"bridge_url"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type AppMetadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
	IconURL     string `yaml:"icon_url"`
}

type HTTP struct {
	Addr        string `yaml:"addr"`
	MaxSessions int    `yaml:"max_sessions"`
}

// Default returns the configuration used when no file overrides a field.
func Default() Configuration {
	c := Configuration{LogLevel: 1}
	c.applyDefaults()
	return c
}

func (in *Configuration) applyDefaults() {
	if in.ChainID == 0 {
		in.ChainID = DefaultChainID
	}
	if in.RPCURL == "" {
		in.RPCURL = DefaultRPCURL
	}
	if in.WalletConnect.ReadTimeout <= 0 {
		in.WalletConnect.ReadTimeout = DefaultRelayTimeout
	}
	if in.AppMetadata.Name == "" {
		in.AppMetadata.Name = DefaultAppName
	}
	if in.AppMetadata.Description == "" {
		in.AppMetadata.Description = DefaultAppDescription
	}
	if in.AppMetadata.URL == "" {
		in.AppMetadata.URL = DefaultAppURL
	}
	if in.AppMetadata.IconURL == "" {
		in.AppMetadata.IconURL = DefaultAppIconURL
	}
	if in.HTTP.Addr == "" {
		in.HTTP.Addr = DefaultHTTPAddr
	}
	if in.HTTP.MaxSessions <= 0 {
		in.HTTP.MaxSessions = DefaultMaxSessions
	}
}

// Load reads a YAML configuration file and fills unset fields with defaults.
func Load(path string) (Configuration, error) {
	dat, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Configuration{}, errors.Errorf("file %s does not exist", path)
		}
		return Configuration{}, errors.Wrap(err, "read configuration file")
	}
	return Parse(dat)
}

// Parse decodes YAML configuration bytes and fills unset fields with defaults.
func Parse(dat []byte) (Configuration, error) {
	t := Configuration{LogLevel: 1}
	if err := yaml.Unmarshal(dat, &t); err != nil {
		return Configuration{}, errors.Wrap(err, "decode configuration")
	}
	t.applyDefaults()
	return t, nil
}

var Global *Configuration

// Read reads configuration information from yml.
func Read() {
	configFilePath := flag.String("config-path", "internal/config/config.yml", "The path to the configuration file")
	flag.Parse()
	logrus.Infof("Loading configuration file from %s", *configFilePath)
	globalConfig, err := Load(*configFilePath)
	if err != nil {
		logrus.Fatal(err)
	}
	Global = &globalConfig
}
