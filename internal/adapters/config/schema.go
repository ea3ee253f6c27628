package config

// File is the structure of toolcache.yaml.
type File struct {
	CacheDir      string     `yaml:"cacheDir"`
	Go            string     `yaml:"go"`
	LogFormat     string     `yaml:"logFormat"`
	KeepWorkspace *bool      `yaml:"keepWorkspace"`
	Remote        *RemoteDTO `yaml:"remote"`
}

// RemoteDTO is the remote cache section of toolcache.yaml.
type RemoteDTO struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"pathStyle"`
}
