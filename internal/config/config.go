package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds server configuration values. Env vars use the SERVER_
// prefix: SERVER_PORT, SERVER_LISTENHOST, SERVER_HOSTNAME,
// SERVER_BSKY_IDENTIFIER, SERVER_BSKY_PASSWORD, SERVER_MYSQL_HOST and so
// on, matching the original deployment.
type Config struct {
	Port       int    `mapstructure:"port" yaml:"port"`
	ListenHost string `mapstructure:"listenhost" yaml:"listenhost"`
	// Hostname is the externally visible name of this service.
	Hostname string `mapstructure:"hostname" yaml:"hostname"`

	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// Service identity credentials on the network.
	BskyIdentifier string `mapstructure:"bsky_identifier" yaml:"bsky_identifier"`
	BskyPassword   string `mapstructure:"bsky_password" yaml:"bsky_password"`

	// PDSHost is the network entryway; PlcHost is the DID directory.
	PDSHost string `mapstructure:"pds_host" yaml:"pds_host"`
	PlcHost string `mapstructure:"plc_host" yaml:"plc_host"`

	// SessionPath is where the service-identity session tokens persist
	// across restarts.
	SessionPath string `mapstructure:"session_path" yaml:"session_path"`

	// StorageDriver selects the mailbox store: "mysql" or "sqlite".
	StorageDriver string `mapstructure:"storage_driver" yaml:"storage_driver"`
	SQLitePath    string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	MysqlHost     string `mapstructure:"mysql_host" yaml:"mysql_host"`
	MysqlPort     int    `mapstructure:"mysql_port" yaml:"mysql_port"`
	MysqlDatabase string `mapstructure:"mysql_database" yaml:"mysql_database"`
	MysqlUser     string `mapstructure:"mysql_user" yaml:"mysql_user"`
	MysqlPassword string `mapstructure:"mysql_password" yaml:"mysql_password"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Port:              3009,
		ListenHost:        "localhost",
		Hostname:          "example.com",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		PDSHost:           "https://bsky.social",
		PlcHost:           "https://plc.directory",
		SessionPath:       "skymail-session.json",
		StorageDriver:     "sqlite",
		SQLitePath:        "skymail.db",
		MysqlHost:         "localhost",
		MysqlPort:         3306,
		MysqlDatabase:     "bsky",
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.Port))
}
