// Package app provides the workflows behind the viswiz command.
//
// # Overview
//
// An App wires the VisWiz API client, the loaded configuration, the detected
// CI environment and a progress reporter together. Each command maps to one
// method:
//
//   - Build: validate inputs, upload an image folder as a new build, print
//     the report URL and optionally wait for the comparison
//   - Projects, Builds: render listings as tables
//   - Results: print the comparison summary of a build
//   - Account: print the account bound to the API key
//
// # Build inputs
//
// Empty build inputs fall back in this order:
//
//	project   request -> config file
//	branch    request -> CI pull request branch -> CI branch
//	message   request -> CI commit message
//	revision  request -> CI commit sha
//
// A value still missing after the fallbacks fails with one of the
// ErrMissing* errors before any request is sent.
//
// # Waiting for results
//
// poller.go polls GetBuildResults until the comparison leaves its pending
// states. The interval starts at Options.PollInterval (default 2 seconds)
// and doubles for each consecutive failed poll, capped at 30 seconds.
// Client errors other than 404, 408 and 429 end the wait immediately.
//
// # Output
//
// User-facing lines go to Options.Stdout, the wait notice to Options.Stderr
// and diagnostics to Options.Logger. Nothing writes to the process streams
// when all three are set, which is how the tests drive the workflows.
package app
