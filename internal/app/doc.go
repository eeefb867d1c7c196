// Package app wires the management core into a runnable application: it
// loads configuration, builds the descriptor catalog and the registry,
// instantiates the configured components and executes management scripts
// against them, decoupled from any specific entrypoint like a CLI.
package app
