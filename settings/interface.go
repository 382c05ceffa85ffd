package settings

import (
	"net/url"
	"time"
)

type UtxoStoreSettings struct {
	URL                  *url.URL
	DBTimeout            time.Duration
	PostgresMaxIdleConns int
	PostgresMaxOpenConns int
	InitialCapacity      int
}

type ValidatorSettings struct {
	SignatureScheme    string
	SignatureCacheSize int
	SignatureCacheTTL  time.Duration
	Concurrency        int
	HTTPListenAddress  string
	HTTPMaxBodySize    string
	EchoDebug          bool
	VerboseDebug       bool
}

type TracingSettings struct {
	Enabled      bool
	SampleRate   float64
	CollectorURL *url.URL
}

type Settings struct {
	ClientName string
	DataFolder string
	LogLevel   string
	UtxoStore  UtxoStoreSettings
	Validator  ValidatorSettings
	Tracing    TracingSettings
}
