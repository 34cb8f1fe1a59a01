package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tagwire/tagwire/internal/config"
	"github.com/tagwire/tagwire/pkg/log"
)

type GlobalOptions struct {
	ConfigFilePath string
	LogLevel       string

	cfg    *config.Config
	logger *logrus.Logger
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: config.DefaultPath(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigFilePath, "config", o.ConfigFilePath, "Path to the tagwire config file.")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level. One of: (trace, debug, info, warn, error).")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrGenerate(o.ConfigFilePath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	o.logger = log.InitLogs()
	level := o.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q", level)
		}
		o.logger.SetLevel(parsed)
	}
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

func (o *GlobalOptions) Config() *config.Config {
	return o.cfg
}

func (o *GlobalOptions) Logger() *logrus.Logger {
	return o.logger
}
