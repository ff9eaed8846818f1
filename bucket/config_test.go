package bucket

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionConfigDefaults(t *testing.T) {
	cfg := ConnectionConfig{BucketName: "assets"}.WithDefaults()
	assert.Equal(t, DriverDefault, cfg.Driver)
	assert.Equal(t, RegionDefault, cfg.Region)
	assert.False(t, cfg.UsePathStyleEndpoint)

	cfg = ConnectionConfig{Driver: "minio", Region: "eu-west-1"}.WithDefaults()
	assert.Equal(t, "minio", cfg.Driver)
	assert.Equal(t, "eu-west-1", cfg.Region)

	pub := ConnectionConfig{Endpoint: "https://internal", PublicURL: "https://cdn"}.publicConfig()
	assert.Equal(t, "https://cdn", pub.Endpoint)
	pub = ConnectionConfig{Endpoint: "https://internal"}.publicConfig()
	assert.Equal(t, "https://internal", pub.Endpoint)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, AliasDefault, reg.Default())

	reg.Register(map[string]ConnectionConfig{
		"b": {BucketName: "shared"},
		"a": {BucketName: "shared", Endpoint: "https://a"},
		"c": {BucketName: "other"},
	}, "c")
	assert.Equal(t, "c", reg.Default())
	assert.Equal(t, []string{"a", "b", "c"}, reg.Aliases())

	cfg, ok := reg.Connection("b")
	require.True(t, ok)
	assert.Equal(t, "b", cfg.Alias)

	cfg, ok = reg.FindByBucket("shared")
	require.True(t, ok)
	assert.Equal(t, "a", cfg.Alias)

	_, ok = reg.FindByBucket("none")
	assert.False(t, ok)

	reg.Register(nil, "")
	assert.Empty(t, reg.Aliases())
	assert.Equal(t, AliasDefault, reg.Default())
}

func TestParseRegistryFromEnv(t *testing.T) {
	t.Setenv("STORAGE_CONNECTIONS", "s3, backup")
	t.Setenv("STORAGE_DEFAULT", "backup")
	t.Setenv("STORAGE_S3_ENDPOINT", "https://s3.example.com")
	t.Setenv("STORAGE_S3_BUCKET", "assets")
	t.Setenv("STORAGE_S3_KEY", "key")
	t.Setenv("STORAGE_S3_SECRET", "secret")
	t.Setenv("STORAGE_BACKUP_DRIVER", "minio")
	t.Setenv("STORAGE_BACKUP_ENDPOINT", "http://minio:9000")
	t.Setenv("STORAGE_BACKUP_BUCKET", "archive")
	t.Setenv("STORAGE_BACKUP_USE_PATH_STYLE_ENDPOINT", "true")

	reg, err := ParseRegistryFromEnv("STORAGE_")
	require.NoError(t, err)
	assert.Equal(t, "backup", reg.Default())
	assert.Equal(t, []string{"backup", "s3"}, reg.Aliases())

	s3cfg, _ := reg.Connection("s3")
	assert.Equal(t, "https://s3.example.com", s3cfg.Endpoint)
	assert.Equal(t, "assets", s3cfg.BucketName)
	assert.Equal(t, "key", s3cfg.AccessKey)
	assert.Equal(t, "secret", s3cfg.SecretKey)

	backup, _ := reg.Connection("backup")
	assert.Equal(t, "minio", backup.Driver)
	assert.True(t, backup.UsePathStyleEndpoint)
}

func TestParseRegistryFromEnvMissingBucket(t *testing.T) {
	t.Setenv("STORAGE_CONNECTIONS", "s3")
	t.Setenv("STORAGE_S3_ENDPOINT", "https://s3.example.com")

	_, err := ParseRegistryFromEnv("STORAGE_")
	assert.Error(t, err)
}

func TestLoadRegistryFile(t *testing.T) {
	dir := t.TempDir()

	yamlFile := filepath.Join(dir, "buckets.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte(`
default: s3
connections:
  s3:
    endpoint: https://s3.example.com
    bucket: assets
    url: https://cdn.example.com
  local:
    driver: local
    endpoint: /var/lib/bucket
    bucket: scratch
`), 0o644))

	reg, err := LoadRegistryFile(yamlFile)
	require.NoError(t, err)
	assert.Equal(t, "s3", reg.Default())
	cfg, ok := reg.FindByBucket("assets")
	require.True(t, ok)
	assert.Equal(t, "s3", cfg.Alias)
	assert.Equal(t, "https://cdn.example.com", cfg.PublicURL)
	cfg, _ = reg.Connection("local")
	assert.Equal(t, "local", cfg.Driver)

	tomlFile := filepath.Join(dir, "buckets.toml")
	require.NoError(t, os.WriteFile(tomlFile, []byte(`
default = "r2"

[connections.r2]
endpoint = "https://account.r2.cloudflarestorage.com"
bucket = "media"
use_path_style_endpoint = true
`), 0o644))

	reg, err = LoadRegistryFile(tomlFile)
	require.NoError(t, err)
	cfg, ok = reg.Connection("r2")
	require.True(t, ok)
	assert.Equal(t, "media", cfg.BucketName)
	assert.True(t, cfg.UsePathStyleEndpoint)

	bad := filepath.Join(dir, "buckets.yml")
	require.NoError(t, os.WriteFile(bad, []byte("connections:\n  s3:\n    endpoint: x\n"), 0o644))
	_, err = LoadRegistryFile(bad)
	assert.Error(t, err)

	_, err = LoadRegistryFile(filepath.Join(dir, "buckets.ini"))
	assert.Error(t, err)
}
