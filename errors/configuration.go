package errors

// Configuration is returned when a lookup into the configured connections
// can not be satisfied, e.g. an unknown alias or bucket name.
type Configuration interface {
	error
	ConfigurationError() Configuration
}

type configurationWrap struct {
	innerErr error
}

var (
	_ Configuration = &configurationWrap{}
	_ Unwrappable   = &configurationWrap{}
)

func (e *configurationWrap) Error() string {
	if e != nil && e.innerErr != nil {
		return e.innerErr.Error()
	}
	return "configuration error"
}

func (e *configurationWrap) Unwrap() error {
	if e != nil {
		return e.innerErr
	}
	return nil
}

func (e *configurationWrap) ConfigurationError() Configuration { return e }

func NewConfiguration(innerErr error) Configuration {
	return &configurationWrap{innerErr}
}

func NewConfigurationMsg(errMsg string) Configuration {
	return &configurationWrap{New(errMsg)}
}

// IsConfiguration reports whether err, or any error it wraps, is a
// configuration error.
func IsConfiguration(err error) bool {
	var cfgErr Configuration
	return As(err, &cfgErr)
}
