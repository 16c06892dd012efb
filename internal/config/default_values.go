package config

const (
	DefaultBaseURL    = "https://ai.gateway.lovable.dev/v1"
	DefaultModel      = "google/gemini-3-flash-preview"
	DefaultTimeoutMS  = 120000
	DefaultMaxRetries = 2

	DefaultServerAddr = "127.0.0.1:8787"
	DefaultGatewayURL = "http://127.0.0.1:8787"
	DefaultDBPath     = "~/.flowboard/flowboard.db"
	DefaultGlobalDir  = "~/.flowboard"
	ProjectConfigName = "flowboard.config.json"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"

	DefaultRuntimeContextTokenLimit = 24000

	DefaultPermission = "allow"
)

// DefaultAllowedHeaders are the request headers the gateway accepts cross-origin.
var DefaultAllowedHeaders = []string{
	"authorization",
	"x-client-info",
	"apikey",
	"content-type",
}
