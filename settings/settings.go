package settings

import (
	"time"
)

func NewSettings() *Settings {
	return &Settings{
		ClientName: getString("clientName", "utxogate"),
		DataFolder: getString("dataFolder", "data"),
		LogLevel:   getString("logLevel", "INFO"),
		UtxoStore: UtxoStoreSettings{
			URL:                  getURL("utxostore", "memory:///"),
			DBTimeout:            getDuration("utxostore_dbTimeout", 5*time.Second),
			PostgresMaxIdleConns: getInt("utxostore_postgresMaxIdleConns", 10),
			PostgresMaxOpenConns: getInt("utxostore_postgresMaxOpenConns", 80),
			InitialCapacity:      getInt("utxostore_initialCapacity", 1024),
		},
		Validator: ValidatorSettings{
			SignatureScheme:    getString("validator_signatureScheme", "secp256k1"),
			SignatureCacheSize: getInt("validator_signatureCacheSize", 100_000), // 0 disables the cache
			SignatureCacheTTL:  getDuration("validator_signatureCacheTTL", 10*time.Minute),
			Concurrency:        getInt("validator_concurrency", 32),
			HTTPListenAddress:  getString("validator_httpListenAddress", ":8090"),
			HTTPMaxBodySize:    getString("validator_httpMaxBodySize", "8M"),
			EchoDebug:          getBool("ECHO_DEBUG", false),
			VerboseDebug:       getBool("validator_verbose_debug", false),
		},
		Tracing: TracingSettings{
			Enabled:      getBool("tracing_enabled", false),
			SampleRate:   getFloat64("tracing_sampleRate", 0.01),
			CollectorURL: getURL("tracing_collector_url", "http://localhost:4318"),
		},
	}
}
