package bucket

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rez-go/stev"
	"github.com/timemore/bucket/errors"
	"github.com/timemore/bucket/filesystem"
	"gopkg.in/yaml.v3"
)

const (
	DriverDefault = "s3"
	RegionDefault = "auto"

	// AliasDefault is used when no default alias was registered and when
	// Get is called without a name.
	AliasDefault = "s3"
)

// ConnectionConfig describes one bucket connection.
type ConnectionConfig struct {
	// Alias is the registry key; it is filled in on registration.
	Alias string `env:"-" yaml:"-" toml:"-" json:"alias,omitempty"`

	// Driver is the filesystem module name, "s3" when empty.
	Driver               string `env:"DRIVER" yaml:"driver" toml:"driver" json:"driver,omitempty"`
	Endpoint             string `env:"ENDPOINT" yaml:"endpoint" toml:"endpoint" json:"endpoint"`
	Region               string `env:"REGION" yaml:"region" toml:"region" json:"region,omitempty"`
	UsePathStyleEndpoint bool   `env:"USE_PATH_STYLE_ENDPOINT" yaml:"use_path_style_endpoint" toml:"use_path_style_endpoint" json:"use_path_style_endpoint"`
	AccessKey            string `env:"KEY" yaml:"key" toml:"key" json:"-"`
	SecretKey            string `env:"SECRET" yaml:"secret" toml:"secret" json:"-"`
	BucketName           string `env:"BUCKET" yaml:"bucket" toml:"bucket" json:"bucket"`

	// PublicURL replaces Endpoint when deriving public object URLs.
	PublicURL string `env:"URL" yaml:"url" toml:"url" json:"url,omitempty"`

	// CredentialsFile is used by the gcs driver only.
	CredentialsFile string `env:"CREDENTIALS_FILE" yaml:"credentials_file" toml:"credentials_file" json:"-"`
}

// WithDefaults returns a copy with Driver and Region filled in.
func (cfg ConnectionConfig) WithDefaults() ConnectionConfig {
	if cfg.Driver == "" {
		cfg.Driver = DriverDefault
	}
	if cfg.Region == "" {
		cfg.Region = RegionDefault
	}
	return cfg
}

func (cfg ConnectionConfig) AdapterConfig() filesystem.Config {
	return filesystem.Config{
		Endpoint:             cfg.Endpoint,
		Region:               cfg.Region,
		UsePathStyleEndpoint: cfg.UsePathStyleEndpoint,
		AccessKey:            cfg.AccessKey,
		SecretKey:            cfg.SecretKey,
		BucketName:           cfg.BucketName,
		CredentialsFile:      cfg.CredentialsFile,
	}
}

// publicConfig is the configuration used to derive public URLs.
func (cfg ConnectionConfig) publicConfig() ConnectionConfig {
	if cfg.PublicURL != "" {
		cfg.Endpoint = cfg.PublicURL
	}
	return cfg
}

type registryEnv struct {
	Connections string `env:"CONNECTIONS"`
	Default     string `env:"DEFAULT"`
}

// ParseRegistryFromEnv builds a registry from environment variables:
//
//	STORAGE_CONNECTIONS=s3,backup
//	STORAGE_DEFAULT=s3
//	STORAGE_S3_ENDPOINT=https://<account>.r2.cloudflarestorage.com
//	STORAGE_S3_BUCKET=assets
//	STORAGE_BACKUP_DRIVER=minio
//	...
//
// with prefix "STORAGE_".
func ParseRegistryFromEnv(prefix string) (*Registry, error) {
	var envCfg registryEnv
	if err := stev.LoadEnv(prefix, &envCfg); err != nil {
		return nil, errors.Wrap("loading connection list", err)
	}

	connections := map[string]ConnectionConfig{}
	for _, alias := range strings.Split(envCfg.Connections, ",") {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		var cfg ConnectionConfig
		envPrefix := prefix + strings.ToUpper(alias) + "_"
		if err := stev.LoadEnv(envPrefix, &cfg); err != nil {
			return nil, errors.Wrap("loading connection "+alias, err)
		}
		if cfg.BucketName == "" {
			return nil, errors.ArgMsg(envPrefix+"BUCKET", "empty")
		}
		connections[alias] = cfg
	}

	reg := NewRegistry()
	reg.Register(connections, envCfg.Default)
	return reg, nil
}

type registryFile struct {
	Default     string                      `yaml:"default" toml:"default"`
	Connections map[string]ConnectionConfig `yaml:"connections" toml:"connections"`
}

// LoadRegistryFile reads connections from a YAML (.yaml, .yml) or TOML
// (.toml) file:
//
//	default: s3
//	connections:
//	  s3:
//	    endpoint: https://s3.example.com
//	    bucket: assets
func LoadRegistryFile(filename string) (*Registry, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap("reading connections file", err)
	}

	var file registryFile
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".toml":
		err = toml.Unmarshal(data, &file)
	default:
		return nil, errors.ArgMsg("filename", "unsupported extension "+ext)
	}
	if err != nil {
		return nil, errors.Wrap("decoding connections file", err)
	}

	for alias, cfg := range file.Connections {
		if cfg.BucketName == "" {
			return nil, errors.EntMsg(alias, "bucket is required")
		}
	}

	reg := NewRegistry()
	reg.Register(file.Connections, file.Default)
	return reg, nil
}
