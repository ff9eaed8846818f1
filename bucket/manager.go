// Package bucket gives a uniform API over S3-compatible buckets: connect
// by alias or bucket name, create files, upload local files or streams
// and resolve public and temporary URLs.
//
//	reg := bucket.NewRegistry()
//	reg.Register(map[string]bucket.ConnectionConfig{
//		"s3": {Endpoint: "https://s3.example.com", BucketName: "assets", AccessKey: "...", SecretKey: "..."},
//	}, "s3")
//	mgr := bucket.NewManager(reg)
//
//	assets := mgr.Get("assets")
//	res, err := assets.Upload(ctx, "/tmp/photo.jpg", "images/", bucket.UploadOptions{})
//
// Expected failures (missing source, taken destination, rejected write)
// do not return an error; they are reported in the Result and recorded
// in Handle.Errors under the path the caller passed in.
package bucket

import (
	"net/url"
	"strings"
	"sync"

	"github.com/timemore/bucket/errors"
	"github.com/timemore/bucket/filesystem"
	"github.com/timemore/bucket/logger"
	"github.com/timemore/bucket/metrics"
)

var log = logger.NewPkgLogger()

// Manager owns the connection registry and the handle cache. Handles are
// connected once per bucket name and reused.
type Manager struct {
	registry *Registry
	cache    *Cache

	getMu sync.Mutex
}

// NewManager creates a manager over registry. A nil registry starts
// empty.
func NewManager(registry *Registry) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		registry: registry,
		cache:    NewCache(),
	}
}

func (m *Manager) Registry() *Registry { return m.registry }

func (m *Manager) Cache() *Cache { return m.cache }

// RegisterConnections replaces the registered connections.
func (m *Manager) RegisterConnections(connections map[string]ConnectionConfig, defaultAlias string) {
	m.registry.Register(connections, defaultAlias)
}

// Connect creates a handle for cfg and caches it under its bucket name,
// replacing any handle cached there. No network call is made.
func (m *Manager) Connect(cfg ConnectionConfig) (*Handle, error) {
	if cfg.BucketName == "" {
		return nil, errors.ArgMsg("config.BucketName", "empty")
	}
	cfg = cfg.WithDefaults()

	fs, err := filesystem.NewAdapter(cfg.Driver, cfg.AdapterConfig())
	if err != nil {
		return nil, errors.ArgWrap("config.Driver", cfg.Driver+" initialization failed", err)
	}

	h := newHandle(m, cfg, fs)
	m.cache.Store(h)

	metrics.ConnectionsTotal.WithLabelValues(cfg.Driver).Inc()
	log.Info().Str("bucket", cfg.BucketName).Str("alias", cfg.Alias).
		Str("driver", cfg.Driver).Msg("bucket connected")

	return h, nil
}

// Connection connects the connection registered as alias. It always
// creates a new handle.
func (m *Manager) Connection(alias string) (*Handle, error) {
	cfg, ok := m.registry.Connection(alias)
	if !ok {
		return nil, errors.NewConfigurationMsg("connection `" + alias + "` is not configured")
	}
	return m.Connect(cfg)
}

// Get returns the handle cached for bucketName, or connects the first
// registered connection using that bucket name. It returns nil when
// neither exists. An empty name means AliasDefault.
func (m *Manager) Get(bucketName string) *Handle {
	if bucketName == "" {
		bucketName = AliasDefault
	}

	m.getMu.Lock()
	defer m.getMu.Unlock()

	if h, ok := m.cache.Load(bucketName); ok {
		return h
	}

	cfg, ok := m.registry.FindByBucket(bucketName)
	if !ok {
		return nil
	}
	h, err := m.Connect(cfg)
	if err != nil {
		log.Warn().Err(err).Str("bucket", bucketName).Msg("bucket connect failed")
		return nil
	}
	return h
}

// URL returns the public URL of objectPath in bucketName, or false when
// no connection uses that bucket or the URL can not be derived.
func (m *Manager) URL(bucketName, objectPath string) (string, bool) {
	u, err := m.ResolveURL(bucketName, objectPath)
	if err != nil {
		log.Debug().Err(err).Str("bucket", bucketName).Str("path", objectPath).Msg("url resolution")
		return "", false
	}
	return u, true
}

// ResolveURL derives the public URL of objectPath using a transient
// client for the first connection whose bucket is bucketName. The
// connection's PublicURL, when set, is used as the endpoint. A
// "<bucketName>." host prefix is removed, because some SDKs always emit
// virtual-hosted-style URLs.
func (m *Manager) ResolveURL(bucketName, objectPath string) (string, error) {
	cfg, ok := m.registry.FindByBucket(bucketName)
	if !ok {
		return "", errors.NewConfigurationMsg("no connection for bucket `" + bucketName + "`")
	}
	cfg = cfg.publicConfig().WithDefaults()

	fs, err := filesystem.NewAdapter(cfg.Driver, cfg.AdapterConfig())
	if err != nil {
		return "", errors.Wrap("url client", err)
	}
	resolver, ok := fs.(filesystem.URLResolver)
	if !ok {
		return "", errors.Wrap("driver "+cfg.Driver, errors.ErrUnimplemented)
	}

	objectURL, err := resolver.ObjectURL(Normalize(objectPath))
	if err != nil {
		return "", err
	}
	return stripBucketHost(objectURL, cfg.BucketName)
}

func stripBucketHost(objectURL, bucketName string) (string, error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return "", errors.Wrap("parse object url", err)
	}
	u.Host = strings.TrimPrefix(u.Host, bucketName+".")
	return u.String(), nil
}

// WithBucket qualifies objectPath with bucketAlias, or with the default
// alias when bucketAlias is empty.
func (m *Manager) WithBucket(objectPath, bucketAlias string) string {
	if bucketAlias == "" {
		bucketAlias = m.registry.Default()
	}
	return WithBucket(objectPath, bucketAlias)
}
