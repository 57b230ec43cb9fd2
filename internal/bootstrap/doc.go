// Package bootstrap assembles sources, the engine, the fallback loader and the
// snapshot store from Settings. It replaces dependency-injection wiring with a
// single explicit Build call.
package bootstrap
