package server

// HTTPServerConfig holds the listener settings for the web API
type HTTPServerConfig struct {
	Address       string `mapstructure:"address"         yaml:"address"`
	ReadTimeout   string `mapstructure:"read_timeout"    yaml:"read_timeout"`
	WriteTimeout  string `mapstructure:"write_timeout"   yaml:"write_timeout"`
	MaxUploadSize int64  `mapstructure:"max_upload_size" yaml:"max_upload_size"`
}
