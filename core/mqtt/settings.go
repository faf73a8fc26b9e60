package mqtt

import (
	"fmt"
	"strconv"
)

// Settings is the mutable connection configuration of the bridge. The
// manager keeps a read-only snapshot and replaces it only through
// ConnectionManager.UpdateSettings.
type Settings struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Username    string `json:"username" yaml:"username"`
	Password    string `json:"password" yaml:"password"`
	ClientID    string `json:"client_id" yaml:"client_id"`
	TopicPrefix string `json:"topic_prefix" yaml:"topic_prefix"`
}

// Equal reports whether every field of s matches o.
func (s Settings) Equal(o Settings) bool {
	return s.Enabled == o.Enabled &&
		s.Host == o.Host &&
		s.Port == o.Port &&
		s.Username == o.Username &&
		s.Password == o.Password &&
		s.ClientID == o.ClientID &&
		s.TopicPrefix == o.TopicPrefix
}

// Active reports whether the settings allow a connection attempt at all.
func (s Settings) Active() bool { return s.Enabled && s.Host != "" }

// HasCredentials reports whether an authenticated connect must be used.
// Both fields are required; a lone username connects anonymously.
func (s Settings) HasCredentials() bool { return s.Username != "" && s.Password != "" }

// Endpoint returns host:port for status reporting.
func (s Settings) Endpoint() string { return s.Host + ":" + strconv.Itoa(s.Port) }

// Validate checks the fields a configuration file must get right. A disabled
// configuration is always valid.
func (s Settings) Validate() error {
	if !s.Enabled {
		return nil
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidSettings, s.Port)
	}
	if s.ClientID == "" {
		return fmt.Errorf("%w: client_id is required", ErrInvalidSettings)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (s Settings) Redacted() Settings {
	if s.Password != "" {
		s.Password = "********"
	}
	return s
}
