// Package config loads the viswiz CLI configuration file.
//
// # Overview
//
// The file is optional. It lets a workstation or CI image keep the API key
// and default project out of the command line. Command-line flags and
// VISWIZ_* environment variables always win over values read here.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it (tilde is expanded)
//  2. Otherwise, use $XDG_CONFIG_HOME/viswiz/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are empty, use defaults
//
// # TOML Format
//
//	api_key = "your-api-key"
//	server = "https://api.viswiz.io"
//	project = "mwwuciQG7ETAmKoyRHgkGg"
//	app_url = "https://app.viswiz.io"
//	concurrency = 4
//	theme = "Kanagawa"
//
// All keys are optional. A negative concurrency is rejected; values above
// 64 are capped.
//
// # Error Handling
//
// Load returns errors for unreadable files and invalid TOML. A missing file
// is NOT an error, so the CLI works without any configuration when the API
// key comes from the environment.
package config
