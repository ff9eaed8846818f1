// Command bucketd serves the configured buckets over HTTP.
//
// Connections come from a YAML or TOML file given with -connections, or
// from STORAGE_* environment variables:
//
//	STORAGE_CONNECTIONS=s3
//	STORAGE_S3_ENDPOINT=https://<account>.r2.cloudflarestorage.com
//	STORAGE_S3_BUCKET=assets
//	STORAGE_S3_KEY=...
//	STORAGE_S3_SECRET=...
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/timemore/bucket/api/rest/bucketapi"
	"github.com/timemore/bucket/app"
	"github.com/timemore/bucket/bucket"
	"github.com/timemore/bucket/logger"

	_ "github.com/timemore/bucket/filesystem/gcs"
	_ "github.com/timemore/bucket/filesystem/local"
	_ "github.com/timemore/bucket/filesystem/memory"
	_ "github.com/timemore/bucket/filesystem/minio"
	_ "github.com/timemore/bucket/filesystem/s3"
)

var log = logger.NewPkgLogger()

// Version information, injected at build time.
var (
	version = "dev"
	commit  = "none"
)

const storageEnvPrefix = "STORAGE_"

func main() {
	showVersion := flag.Bool("version", false, "Show version information and exit")
	connectionsFile := flag.String("connections", "", "Path to a YAML or TOML connections file")
	envDir := flag.String("env-dir", ".", "Directory of the <KEY>.env files")
	flag.Parse()

	if *showVersion {
		fmt.Printf("bucketd version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if err := app.LoadEnvFiles([]string{"BUCKETD_ENV", "STORAGE_ENV"}, *envDir); err != nil {
		log.Fatal().Err(err).Msg("loading env files")
	}

	appCtx, err := app.InitByEnvDefault()
	if err != nil {
		log.Fatal().Err(err).Msg("app initialization")
	}

	var registry *bucket.Registry
	if *connectionsFile != "" {
		registry, err = bucket.LoadRegistryFile(*connectionsFile)
	} else {
		registry, err = bucket.ParseRegistryFromEnv(storageEnvPrefix)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("loading connections")
	}
	if len(registry.Aliases()) == 0 {
		log.Warn().Msg("no bucket connections configured")
	}

	srvCfg, err := bucketapi.ConfigFromEnv(bucketapi.EnvPrefixDefault)
	if err != nil {
		log.Fatal().Err(err).Msg("server configuration")
	}

	log.Info().
		Str("app", appCtx.AppInfo().Name).
		Str("instance_id", appCtx.InstanceID()).
		Str("version", version).
		Strs("connections", registry.Aliases()).
		Str("default", registry.Default()).
		Msg("starting")

	appCtx.AddServer(bucketapi.NewServer(srvCfg, bucket.NewManager(registry)))
	appCtx.Run()
}
