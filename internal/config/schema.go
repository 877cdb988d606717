package config

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server" json:"server"`
	Session  SessionConfig  `toml:"session" json:"session"`
	Defaults DefaultsConfig `toml:"defaults" json:"defaults"`
	Tail     TailConfig     `toml:"tail" json:"tail"`
	Log      LogConfig      `toml:"log" json:"log"`
}

// ServerConfig holds the cassette service connection settings.
type ServerConfig struct {
	URL         string `toml:"url" json:"url"`
	SendReferer bool   `toml:"send_referer" json:"send_referer"`
	Timeout     int    `toml:"timeout" json:"timeout"` // seconds
}

// SessionConfig holds where session cookies are kept between runs.
type SessionConfig struct {
	File string `toml:"file" json:"file"`
}

// DefaultsConfig holds default command settings.
type DefaultsConfig struct {
	Device string `toml:"device" json:"device"`
}

// TailConfig holds settings for tail/follow mode.
type TailConfig struct {
	Interval int    `toml:"interval" json:"interval"` // milliseconds
	Template string `toml:"template" json:"template"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}
