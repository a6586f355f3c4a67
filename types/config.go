package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose   bool            `mapstructure:"verbose"`
	Config    string          `mapstructure:"config"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Store     StoreConfig     `mapstructure:"store" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"omitempty"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
	// AllowedOrigins is the CORS allowlist; empty reflects any origin.
	AllowedOrigins []string `mapstructure:"allowedOrigins" validate:"omitempty,dive,url"`
}

// StoreConfig holds configuration-store settings
type StoreConfig struct {
	// Path is the directory holding the sqlite database, or ":memory:".
	Path string `mapstructure:"path" validate:"required"`
}

// LLMConfig holds configuration for LLM integration
type LLMConfig struct {
	Provider  string `mapstructure:"provider" validate:"omitempty,oneof=openai ollama anthropic gemini"`
	ModelName string `mapstructure:"modelName" validate:"omitempty,min=1"`
	APIKey    string `mapstructure:"apiKey" validate:"omitempty,min=1"`
	BaseURL   string `mapstructure:"baseUrl" validate:"omitempty,url"`
	// RequestTimeoutSeconds controls the timeout applied to model calls
	RequestTimeoutSeconds int `mapstructure:"requestTimeoutSeconds" validate:"omitempty,min=5,max=600"`
	// Debug enables extra request/response logging within the LLM provider
	Debug bool `mapstructure:"debug"`
}

// TelemetryConfig holds anonymous usage analytics settings
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	APIKey   string `mapstructure:"apiKey"`
	Endpoint string `mapstructure:"endpoint"`
}
