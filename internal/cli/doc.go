// Package cli builds the mgmtgrid command tree, validates user input and
// handles process-level concerns like exit codes. It translates flags into
// the application's configuration.
package cli
