package server

// StorageServerConfig holds blob storage configuration. Uploads land under
// Root, partitioned into one directory per user.
type StorageServerConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}
