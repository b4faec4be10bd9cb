package server

// AuthServerConfig holds session and password-hashing settings
type AuthServerConfig struct {
	SessionTTL string `mapstructure:"session_ttl" yaml:"session_ttl"`
	BcryptCost int    `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`
}
