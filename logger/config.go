package logger

type Config struct {
	// Level is a zerolog level name, e.g. "debug" or "warn"
	Level string `env:"LEVEL"`

	// Pretty switches stderr output to the human readable console writer
	Pretty bool `env:"PRETTY"`

	// FileLogging makes the logger also write to a rolling file.
	// The fields below are ignored when this value is false.
	FileLogging bool `env:"FILE_LOGGING"`
	// Directory to write the log file to
	Directory string `env:"DIRECTORY"`
	// Filename of the log file inside Directory
	Filename string `env:"FILENAME"`
	// MaxSize in MB of the log file before it's rolled
	MaxSize int `env:"MAX_SIZE"`
	// MaxBackups is the number of rolled files to keep
	MaxBackups int `env:"MAX_BACKUPS"`
	// MaxAge in days to keep a rolled file
	MaxAge int `env:"MAX_AGE"`
}

func ConfigSkeleton() Config {
	return Config{
		Directory:  "/var/log",
		Filename:   "bucket.log",
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
	}
}
