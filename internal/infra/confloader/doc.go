// Package confloader loads confmesh's own settings with koanf.
//
// Sources, lowest to highest priority:
//
//  1. Defaults already present in the target struct
//  2. YAML settings file
//  3. CONFMESH_ environment variables ("__" separates nesting levels)
//  4. Explicit overrides (command-line flags)
//
// Decode reuses the same koanf machinery to turn a loaded configuration map
// into a typed struct.
package confloader
