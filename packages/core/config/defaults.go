package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		DefaultEnvironment: "",
		Timeout:            30000, // 30 seconds
		FollowRedirects:    boolPtr(true),
		MaxRedirects:       10,
		ValidateSSL:        boolPtr(true),
		Proxy:              "",
		Headers:            nil,
		HistoryPath:        ".hitpost/history.db",
		Output:             "console",
		NoColor:            boolPtr(false),
		LogLevel:           "warn",
		LogFormat:          "text",
	}
}
