// Package cli provides the local CyberGuard password tool.
//
// Commands:
//   - check: read a password without echo and print its score and strength
//   - generate: print a random password; flags select length and classes
//   - version: print build information
//
// The tool runs entirely offline on top of the passwords package.
// See App.Run for the dispatch.
package cli
