package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "http://127.0.0.1:8080",
			SendReferer: true,
			Timeout:     30,
		},
		Tail: TailConfig{
			Interval: 5000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
// SendReferer is left alone since false is a meaningful setting.
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = d.Server.Timeout
	}

	if c.Tail.Interval == 0 {
		c.Tail.Interval = d.Tail.Interval
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
