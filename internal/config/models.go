package config

import "time"

// ServerConfig holds the frontend settings
type ServerConfig struct {
	Frontend        string
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string
}

// ScoringConfig holds the model artifact settings
type ScoringConfig struct {
	ModelPath   string
	Preload     bool
	S3Region    string
	LoadTimeout time.Duration
}

// BlocklistConfig holds the domain list locations
type BlocklistConfig struct {
	MaliciousPath string
	BenignPath    string
	BenignDomains []string
}

// StoreConfig holds the record store settings
type StoreConfig struct {
	Type        string
	SQLitePath  string
	MySQLDSN    string
	PostgresDSN string
}

// AttachmentsConfig holds the attachment storage settings
type AttachmentsConfig struct {
	Enabled bool
	Dir     string
}

// LoggingConfig holds the logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// GetServer returns the server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		Frontend:        c.GetString("server.frontend"),
		ListenAddress:   c.GetString("server.listen_address"),
		ReadTimeout:     c.GetDuration("server.read_timeout"),
		WriteTimeout:    c.GetDuration("server.write_timeout"),
		ShutdownTimeout: c.GetDuration("server.shutdown_timeout"),
		Mode:            c.GetString("server.mode"),
	}
}

// GetScoring returns the scoring configuration
func (c *Config) GetScoring() ScoringConfig {
	return ScoringConfig{
		ModelPath:   c.GetString("scoring.model_path"),
		Preload:     c.GetBool("scoring.preload"),
		S3Region:    c.GetString("scoring.s3_region"),
		LoadTimeout: c.GetDuration("scoring.load_timeout"),
	}
}

// GetBlocklist returns the blocklist configuration
func (c *Config) GetBlocklist() BlocklistConfig {
	return BlocklistConfig{
		MaliciousPath: c.GetString("blocklist.malicious_path"),
		BenignPath:    c.GetString("blocklist.benign_path"),
		BenignDomains: c.GetStringSlice("blocklist.benign_domains"),
	}
}

// GetStore returns the record store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:        c.GetString("store.type"),
		SQLitePath:  c.GetString("store.sqlite_path"),
		MySQLDSN:    c.GetString("store.mysql_dsn"),
		PostgresDSN: c.GetString("store.postgres_dsn"),
	}
}

// GetAttachments returns the attachment storage configuration
func (c *Config) GetAttachments() AttachmentsConfig {
	return AttachmentsConfig{
		Enabled: c.GetBool("attachments.enabled"),
		Dir:     c.GetString("attachments.dir"),
	}
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
