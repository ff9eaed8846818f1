// Package app holds the process level pieces of the bucket daemon: the
// app information, environment files and the server runner.
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/timemore/bucket/errors"
)

const EnvPrefixDefault = "APP"

const (
	NameDefault       = "bucketd"
	URLDefault        = "https://github.com/timemore/bucket"
	EnvDefault        = "dev"
	DefaultTZLocation = "UTC"
)

type Info struct {
	// Name of the app
	Name string `split_words:"true"`
	// URL Canonical URL of the app
	URL        string `split_words:"true"`
	Env        string `split_words:"true"`
	TZLocation string `split_words:"true"`
	location   *time.Location
}

func DefaultInfo() Info {
	return Info{
		Name:       NameDefault,
		URL:        URLDefault,
		Env:        EnvDefault,
		TZLocation: DefaultTZLocation,
	}
}

type App interface {
	AppInfo() Info
	InstanceID() string

	AddServer(ServiceServer)
	Run()
	IsAllServersAcceptingClients() bool
}

type Base struct {
	appInfo    Info
	instanceID string

	servers   []ServiceServer
	serversMu sync.Mutex
}

func (appBase *Base) AppInfo() Info      { return appBase.appInfo }
func (appBase *Base) InstanceID() string { return appBase.instanceID }

// AddServer adds a server to be run simultaneously. Do NOT call this
// method after the app has been started.
func (appBase *Base) AddServer(srv ServiceServer) {
	appBase.serversMu.Lock()
	appBase.servers = append(appBase.servers, srv)
	appBase.serversMu.Unlock()
}

// Run runs all the servers. Do NOT add any new server after this method was called.
func (appBase *Base) Run() {
	RunServers(appBase.servers)
}

// IsAllServersAcceptingClients checks if every server is accepting clients.
func (appBase *Base) IsAllServersAcceptingClients() bool {
	appBase.serversMu.Lock()
	servers := appBase.servers
	appBase.serversMu.Unlock()

	for _, srv := range servers {
		if !srv.IsAcceptingClients() {
			return false
		}
	}
	return true
}

var (
	defApp     App
	defAppOnce sync.Once
)

func InitByEnvDefault() (App, error) {
	info := DefaultInfo()
	err := envconfig.Process(EnvPrefixDefault, &info)
	if err != nil {
		return nil, errors.Wrap("info loading from environment variables", err)
	}
	return Init(&info)
}

// Init creates the process wide app once. Later calls return the same
// app and ignore info.
func Init(info *Info) (App, error) {
	defAppOnce.Do(func() {
		defApp = New(info)
	})
	return defApp, nil
}

// New creates an app with a fresh instance ID. A nil info means
// DefaultInfo.
func New(info *Info) *Base {
	appInfo := DefaultInfo()
	if info != nil {
		appInfo = *info
	}
	if appInfo.Env == "" {
		appInfo.Env = EnvDefault
	}
	location, err := time.LoadLocation(appInfo.TZLocation)
	if err != nil {
		location = time.Local
	}
	appInfo.location = location

	return &Base{appInfo: appInfo, instanceID: uuid.NewString()}
}

func TZLocation() *time.Location {
	if defApp == nil {
		return time.Local
	}
	return defApp.AppInfo().location
}

func (appInfo Info) TZ() *time.Location { return appInfo.location }
