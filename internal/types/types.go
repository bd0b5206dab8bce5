package types

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetEffectiveServerConfig() ServerConfig
	GetCORSConfig() CORSConfig
	GetPerformanceConfig() PerformanceConfig
	GetLogConfig() LogConfig
	GetDatabaseConfig() DatabaseConfig
	GetRedisDSN() string
	GetUpstreamConfig() UpstreamConfig
	GetRelayConfig() RelayConfig
	Validate() error
	DisplayServerConfig()
	ReloadConfig() error
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port                    int    `json:"port"`
	Host                    string `json:"host"`
	ReadTimeout             int    `json:"read_timeout"`
	WriteTimeout            int    `json:"write_timeout"`
	IdleTimeout             int    `json:"idle_timeout"`
	GracefulShutdownTimeout int    `json:"graceful_shutdown_timeout"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// PerformanceConfig represents performance configuration
type PerformanceConfig struct {
	MaxConcurrentRequests int `json:"max_concurrent_requests"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	EnableFile bool   `json:"enable_file"`
	FilePath   string `json:"file_path"`
}

// DatabaseConfig represents database configuration. An empty DSN disables
// relay call logging.
type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

// UpstreamConfig holds connection parameters for the completion provider.
type UpstreamConfig struct {
	APIKey                string `json:"-"`
	BaseURL               string `json:"base_url"`
	Model                 string `json:"model"`
	RequestTimeout        int    `json:"request_timeout"`
	ConnectTimeout        int    `json:"connect_timeout"`
	IdleConnTimeout       int    `json:"idle_conn_timeout"`
	ResponseHeaderTimeout int    `json:"response_header_timeout"`
	MaxIdleConns          int    `json:"max_idle_conns"`
	MaxIdleConnsPerHost   int    `json:"max_idle_conns_per_host"`
	ProxyURL              string `json:"proxy_url"`
	Stealth               bool   `json:"stealth"`
}

// ResponseFormat selects how the model is instructed to answer and how the
// reassembler treats the token stream.
type ResponseFormat string

const (
	// FormatPlain streams free-flowing prose, flushed on sentence
	// boundaries, paragraph breaks, or the size threshold.
	FormatPlain ResponseFormat = "plain"
	// FormatStructured instructs the model to emit one JSON envelope which
	// is rendered to Markdown once it parses.
	FormatStructured ResponseFormat = "structured"
)

// RelayConfig holds the reassembly and prompting options for relay calls.
type RelayConfig struct {
	SystemPrompt   string         `json:"system_prompt"`
	ResponseFormat ResponseFormat `json:"response_format"`
	FlushThreshold int            `json:"flush_threshold"`
}
