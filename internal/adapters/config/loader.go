// Package config loads runtime settings from toolcache.yaml and the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by the loader.
const (
	EnvConfig        = "TOOLCACHE_CONFIG"
	EnvCacheDir      = "TOOLCACHE_DIR"
	EnvGoBinary      = "TOOLCACHE_GO"
	EnvLogFormat     = "TOOLCACHE_LOG_FORMAT"
	EnvKeepWorkspace = "TOOLCACHE_KEEP_WORKSPACE"
	EnvS3Bucket      = "TOOLCACHE_S3_BUCKET"
	EnvS3Region      = "TOOLCACHE_S3_REGION"
	EnvS3Prefix      = "TOOLCACHE_S3_PREFIX"
	EnvS3Endpoint    = "TOOLCACHE_S3_ENDPOINT"
	EnvS3PathStyle   = "TOOLCACHE_S3_PATH_STYLE"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load resolves settings from defaults, the config file and the environment,
// in increasing order of precedence.
func (l *Loader) Load(cwd string) (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		var file File
		if err := readAndUnmarshalYAML(configPath, &file); err != nil {
			return nil, zerr.With(err, "path", configPath)
		}
		applyFile(&settings, &file, filepath.Dir(configPath))
		l.Logger.Debug("loaded configuration from " + configPath)
	}

	if err := applyEnvironment(&settings); err != nil {
		return nil, err
	}

	if !settings.LogFormat.Valid() {
		return nil, zerr.With(domain.ErrInvalidLogFormat, "format", string(settings.LogFormat))
	}

	return &settings, nil
}

// findConfiguration returns the config file named by TOOLCACHE_CONFIG, or the
// nearest toolcache.yaml at or above cwd. An empty path means none exists.
func (l *Loader) findConfiguration(cwd string) (string, error) {
	if explicit := os.Getenv(EnvConfig); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			readErr := zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
			return "", zerr.With(readErr, "path", explicit)
		}
		return explicit, nil
	}

	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}

func applyFile(settings *domain.Settings, file *File, baseDir string) {
	if file.CacheDir != "" {
		settings.CacheDir = resolvePath(baseDir, file.CacheDir)
	}
	if file.Go != "" {
		settings.GoBinary = file.Go
	}
	if file.LogFormat != "" {
		settings.LogFormat = domain.LogFormat(file.LogFormat)
	}
	if file.KeepWorkspace != nil {
		settings.KeepWorkspace = *file.KeepWorkspace
	}
	if file.Remote != nil {
		settings.Remote = domain.RemoteSettings{
			Bucket:    file.Remote.Bucket,
			Region:    file.Remote.Region,
			Prefix:    file.Remote.Prefix,
			Endpoint:  file.Remote.Endpoint,
			PathStyle: file.Remote.PathStyle,
		}
	}
}

func applyEnvironment(settings *domain.Settings) error {
	overrideString(&settings.CacheDir, EnvCacheDir)
	overrideString(&settings.GoBinary, EnvGoBinary)
	overrideString(&settings.Remote.Bucket, EnvS3Bucket)
	overrideString(&settings.Remote.Region, EnvS3Region)
	overrideString(&settings.Remote.Prefix, EnvS3Prefix)
	overrideString(&settings.Remote.Endpoint, EnvS3Endpoint)

	if v := os.Getenv(EnvLogFormat); v != "" {
		settings.LogFormat = domain.LogFormat(v)
	}
	if err := overrideBool(&settings.KeepWorkspace, EnvKeepWorkspace); err != nil {
		return err
	}
	return overrideBool(&settings.Remote.PathStyle, EnvS3PathStyle)
}

func overrideString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func overrideBool(target *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		parseErr := zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
		return zerr.With(parseErr, "variable", key)
	}
	*target = b
	return nil
}

// resolvePath makes p absolute relative to baseDir.
func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is discovered or named explicitly by the user
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
