// Parses flags and runs the viswiz subcommands.
//
// Global flags:
//
//	-k, --api-key    API key (VISWIZ_API_KEY).
//	-p, --project    Project ID (VISWIZ_PROJECT_ID).
//	    --server     API base URL (VISWIZ_SERVER).
//	    --config     Config file, default $XDG_CONFIG_HOME/viswiz/config.toml.
//	-q, --quiet      Suppress progress and status lines.
//	-d, --debug      Enable debug output.
//
// A flag wins over its environment variable, which wins over the config
// file. Diagnostics are logged as text to stderr; command output goes to
// stdout. Any error is printed as "Error: <message>" and yields exit code 1.
package cli
