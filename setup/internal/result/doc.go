// Package result defines the value every outbound call in hostpager-setup
// returns instead of an error: success flag, classification, HTTP status and a
// human-readable detail. Components never let a remote failure escape as a Go
// error; the orchestrator folds Results into its report.
package result
