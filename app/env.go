package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/timemore/bucket/errors"
)

// LoadEnvFiles loads, for every key, the dotenv content held by the
// environment variable itself and then the file <fileBasePath>/<key>.env.
// Variables which are already set are never overridden. Missing files are
// skipped.
func LoadEnvFiles(envVarKeys []string, fileBasePath string) error {
	for _, k := range envVarKeys {
		str := os.Getenv(k)
		if str == "" {
			continue
		}
		envMap, err := godotenv.Parse(strings.NewReader(str))
		if err != nil {
			return errors.Wrap("parsing "+k, err)
		}
		for ik, iv := range envMap {
			if _, exists := os.LookupEnv(ik); !exists {
				_ = os.Setenv(ik, iv)
			}
		}
	}

	for _, k := range envVarKeys {
		envFile := filepath.Join(fileBasePath, k+".env")
		if err := godotenv.Load(envFile); err != nil {
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) {
				return errors.Wrap("loading "+envFile, err)
			}
		}
	}
	return nil
}
