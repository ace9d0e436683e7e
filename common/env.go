// Package common provides shared types and constants used across the SubSleuth
// daemon, its RPC clients and the native messaging host.
package common

// EnvPrefix is the prefix of every environment variable SubSleuth reads.
const EnvPrefix = "SUBSLEUTH"

// Environment variable names for configuration.
const (
	// ConfigDirEnv overrides the configuration directory.
	ConfigDirEnv = EnvPrefix + "_CONFIG_DIR"

	// PortEnv is the environment variable for the daemon TCP port.
	PortEnv = EnvPrefix + "_PORT"

	// SecretEnv supplies the RPC secret instead of the OS keyring.
	SecretEnv = EnvPrefix + "_RPC_SECRET"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = EnvPrefix + "_DEBUG"
)
