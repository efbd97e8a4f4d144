// Package cli implements the event-notify command line interface.
//
// The root command wires configuration (config file, environment, flags)
// into a resolved config.Config and hands it to subcommands: refresh runs
// the full sync pipeline, scrape captures snapshots without touching the
// store, manual add/list is the operator entry workflow, and events shows
// what is currently persisted.
package cli
