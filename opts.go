package nest

import "github.com/xraph/go-utils/log"

// Option configures a Directory.
type Option func(*directoryConfig)

type directoryConfig struct {
	logger    log.Logger
	observers []Observer
}

// WithLogger sets the logger used by the directory and every scope it installs.
func WithLogger(logger log.Logger) Option {
	return func(c *directoryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver adds an observer notified while scopes install. It may be
// passed several times; observers are notified in the order given.
func WithObserver(observer Observer) Option {
	return func(c *directoryConfig) {
		if observer != nil {
			c.observers = append(c.observers, observer)
		}
	}
}

// InstallOption configures a single scope installation.
type InstallOption func(*installConfig)

type installConfig struct {
	settings  SettingsProvider
	arguments []any
}

// WithSettings sets the scope's settings provider.
func WithSettings(settings SettingsProvider) InstallOption {
	return func(c *installConfig) {
		c.settings = settings
	}
}

// WithArguments passes arguments to the scope's installers through Binder.Arguments.
func WithArguments(args ...any) InstallOption {
	return func(c *installConfig) {
		c.arguments = append(c.arguments, args...)
	}
}

func mergeInstallOptions(opts []InstallOption) installConfig {
	var c installConfig
	for _, opt := range opts {
		opt(&c)
	}

	return c
}
