// Package version provides version information for the rate-oracle application.
package version

// Version is the current version of the rate-oracle application.
const Version = "0.2.1"

// AgentString returns the full agent string with versioning.
func AgentString() string {
	return "rate-oracle/v" + Version
}
