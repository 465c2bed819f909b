package domain

import "fmt"

// Recognized config keys. The Store and ControlAPI accept no other key, and
// the ControlAPI requires every value to be a non-negative integer.
const (
	ConfigMaxRetries   = "max_retries"
	ConfigBackoffBase  = "backoff_base"
	ConfigExecTimeoutS = "exec_timeout_seconds"
)

// DefaultMaxRetries and DefaultBackoffBase are the fallback values used when
// the corresponding Config key has never been set.
const (
	DefaultMaxRetries  = 3
	DefaultBackoffBase = 2
)

// KnownConfigKeys lists every key `config set`/`config get` accept, used to
// validate CLI input before it reaches the Store.
var KnownConfigKeys = []string{ConfigMaxRetries, ConfigBackoffBase, ConfigExecTimeoutS}

// ValidConfigKey reports whether key is recognized.
func ValidConfigKey(key string) bool {
	for _, k := range KnownConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ConfigKeyError wraps ErrValidation with the offending key for a clearer
// CLI message.
func ConfigKeyError(key string) error {
	return fmt.Errorf("%w: unknown config key %q", ErrValidation, key)
}
