// Package tlsroots builds the trusted root set for HTTPS calls to remote
// configuration services: the system roots plus extra CA certificates from
// a PEM file or a directory of PEM files. It serves endpoints behind a
// private CA, such as a local AWS emulator or a TLS-inspecting proxy.
package tlsroots
