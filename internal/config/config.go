package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultPort is the port the chat server listens on unless told otherwise.
const DefaultPort = 9001

// UI modes accepted by the client.
const (
	UITerminal = "tui"
	UIConsole  = "console"
)

// Config holds client configuration values.
type Config struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         int           `mapstructure:"port" yaml:"port"`
	UI           string        `mapstructure:"ui" yaml:"ui"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile      string        `mapstructure:"log_file" yaml:"log_file"`
	MaxLogLines  int           `mapstructure:"max_log_lines" yaml:"max_log_lines"`
}

// Default returns configuration with reasonable starter defaults.
// Host is left empty so the user is asked for the server address.
func Default() Config {
	return Config{
		Port:         DefaultPort,
		UI:           UITerminal,
		DialTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		LogLevel:     "info",
		LogFile:      "chatter.log",
		MaxLogLines:  1000,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.UI != "" {
		c.UI = other.UI
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.ReadTimeout != 0 {
		c.ReadTimeout = other.ReadTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.MaxLogLines != 0 {
		c.MaxLogLines = other.MaxLogLines
	}
}

// Address joins host with the configured port. A host that already carries
// a port is returned as is.
func (c Config) Address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
