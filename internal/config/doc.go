// Package config defines the settings of the confmesh tool itself.
//
//   - settings.go: Settings struct definition
//   - default.go: default values
//   - verify.go: consistency checks
//   - sanitize.go: masking of credentials for display
//   - load.go: file, environment and flag layering via confloader
//
// These settings describe which sources to consult and how; the application
// configuration those sources hold is produced by the engine.
package config
