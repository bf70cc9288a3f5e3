package shared

import (
	"encoding/json"
	"github.com/tailscale/hujson"
	"log"
	"os"
	"time"
)

const (
	configVarName  = "CONFIG"                      // If set, will load config.json from this path and not from devConfigPath
	secretsVarName = "SECRETS"                     // If set, will load secrets.json from this path and not from devSecretsPath
	devConfigPath  = "../../dev/config.dev.jsonc"  // Path to config.json in development environment
	devSecretsPath = "../../dev/secrets.dev.jsonc" // Path to secrets.json in development environment
)

const (
	DefaultMaxConcurrent      = 200
	DefaultIdleWakeSec        = 180
	DefaultRefreshIntervalSec = 120
	DefaultSyncLoopIdleSec    = 30
	DefaultUploadChunkSize    = 8192
	DefaultProfileKeepDays    = 3
)

type Config struct {
	Secrets            Secrets `json:"-"`
	LogFile            string  `json:"log_file"`
	LogLevel           string  `json:"log_level"`
	ServicePort        uint    `json:"service_port"`
	Host               string  `json:"host"`
	DbFile             string  `json:"db_file"`
	ApiBase            string  `json:"api_base"`
	UploadUrl          string  `json:"upload_url"`
	MaxConcurrent      int     `json:"max_concurrent"`
	IdleWakeSec        int     `json:"idle_wake_sec"`
	RefreshIntervalSec int     `json:"refresh_interval_sec"`
	SyncLoopIdleSec    int     `json:"sync_loop_idle_sec"`
	UploadChunkSize    int     `json:"upload_chunk_size"`
	ProfileDir         string  `json:"profile_dir"` // Goroutine dumps go here; empty disables the profiler
	ProfileKeepDays    int     `json:"profile_keep_days"`
}

type Secrets struct {
	ConsumerKey    string            `json:"consumer_key"`
	ConsumerSecret string            `json:"consumer_secret"`
	ApiKeys        map[string]string `json:"api_keys"`
	MetricsAuth    string            `json:"metrics_auth"`
}

func LoadConfig() *Config {

	// Where are our config and secrets files?
	cfgPath := os.Getenv(configVarName)
	if len(cfgPath) == 0 {
		cfgPath = devConfigPath
	}
	secretsPath := os.Getenv(secretsVarName)
	if len(secretsPath) == 0 {
		secretsPath = devSecretsPath
	}

	// Read config file
	var config Config
	mustDeserializeFile(cfgPath, &config)
	// Read secrets member from secrets file
	mustDeserializeFile(secretsPath, &config.Secrets)
	return config.WithDefaults()
}

// WithDefaults fills in zero-valued tunables. Returns the receiver.
func (cfg *Config) WithDefaults() *Config {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.IdleWakeSec <= 0 {
		cfg.IdleWakeSec = DefaultIdleWakeSec
	}
	if cfg.RefreshIntervalSec <= 0 {
		cfg.RefreshIntervalSec = DefaultRefreshIntervalSec
	}
	if cfg.SyncLoopIdleSec <= 0 {
		cfg.SyncLoopIdleSec = DefaultSyncLoopIdleSec
	}
	if cfg.UploadChunkSize <= 0 {
		cfg.UploadChunkSize = DefaultUploadChunkSize
	}
	if cfg.ProfileKeepDays <= 0 {
		cfg.ProfileKeepDays = DefaultProfileKeepDays
	}
	return cfg
}

func (cfg *Config) IdleWake() time.Duration {
	return time.Duration(cfg.IdleWakeSec) * time.Second
}

func (cfg *Config) RefreshInterval() time.Duration {
	return time.Duration(cfg.RefreshIntervalSec) * time.Second
}

func mustDeserializeFile[T any](fileName string, obj *T) {
	var err error
	var cfgJson []byte
	cfgJson, err = os.ReadFile(fileName)
	if err != nil {
		log.Fatal(err)
	}
	// JSONC => JSON
	cfgJson, err = standardizeJSON(cfgJson)
	if err != nil {
		log.Fatal(err)
	}
	// Parse
	if err := json.Unmarshal(cfgJson, obj); err != nil {
		log.Fatal(err)
	}
}

func standardizeJSON(b []byte) ([]byte, error) {
	ast, err := hujson.Parse(b)
	if err != nil {
		return b, err
	}
	ast.Standardize()
	return ast.Pack(), nil
}
