package resilience

// FromConfig builds a RetryConfig with the configured attempt count,
// keeping defaults for everything else. maxAttempts <= 0 keeps the
// default.
func FromConfig(maxAttempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	return cfg
}
