// Package command provides the confmesh CLI commands.
//
// Every command runs against settings resolved in the app's Before hook:
// defaults, then the --config file, then CONFMESH_ environment variables,
// then global flags. Commands that need configuration build a
// bootstrap.App, run one load and close it again.
package command
