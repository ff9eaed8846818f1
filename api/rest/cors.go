package rest

import (
	"strings"

	"github.com/emicklei/go-restful/v3"
	"github.com/kelseyhightower/envconfig"
	"github.com/timemore/bucket/errors"
)

// CORSFilterConfig is loaded from <prefix>_ALLOWED_HEADERS,
// <prefix>_ALLOWED_METHODS and <prefix>_ALLOWED_DOMAINS. All of them are
// comma separated lists.
type CORSFilterConfig struct {
	AllowedHeaders *string `split_words:"true"`
	AllowedMethods string  `split_words:"true"`
	AllowedDomains string  `split_words:"true"`
}

func SetupCORSFilterByEnv(restContainer *restful.Container, envPrefix string) error {
	var cfg CORSFilterConfig
	err := envconfig.Process(envPrefix, &cfg)
	if err != nil {
		return errors.Wrap("config loading from environment variables", err)
	}
	SetupCORSFilter(restContainer, cfg)
	return nil
}

func SetupCORSFilter(restContainer *restful.Container, cfg CORSFilterConfig) {
	allowedHeaders := []string{"Content-Type", "Accept", "Authorization", RequestIDHeader}
	if cfg.AllowedHeaders != nil {
		allowedHeaders = splitList(*cfg.AllowedHeaders)
	}

	allowedMethods := splitList(cfg.AllowedMethods)
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "OPTIONS"}
	}

	allowedDomains := splitList(cfg.AllowedDomains)
	if len(allowedDomains) == 0 {
		allowedDomains = []string{"*"}
	}

	restContainer.Filter(restful.CrossOriginResourceSharing{
		AllowedHeaders: allowedHeaders,
		AllowedDomains: allowedDomains,
		AllowedMethods: allowedMethods,
		CookiesAllowed: false,
		Container:      restContainer,
	}.Filter)
}

func splitList(strVal string) []string {
	var items []string
	for _, str := range strings.Split(strVal, ",") {
		if str = strings.TrimSpace(str); str != "" {
			items = append(items, str)
		}
	}
	return items
}
