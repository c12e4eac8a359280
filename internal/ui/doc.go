// Package ui renders upload progress for the viswiz CLI.
//
// Two renderers implement Reporter:
//
//   - An interactive Bubble Tea program with a gradient progress bar,
//     elapsed and estimated remaining time, used when stdout is a terminal
//     outside CI
//   - Plain "NN% (c/t images)" lines printed only when the whole percentage
//     changes, used in CI and when output is redirected
//
// Both record progress in a state.Store; the Bubble Tea model re-reads the
// snapshot on every progress message and on a half-second tick.
//
// Colors come from one of the themes returned by ThemeNames. Table renders
// the project and build listings with the same theme.
package ui
