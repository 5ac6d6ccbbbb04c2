package runtime

import (
	"flag"

	"github.com/joshsymonds/mailtidy/internal/config"
)

// CommonFlags are accepted by every mailtidy binary.
type CommonFlags struct {
	ConfigDir string
	PageSize  int
	RPS       int
	Port      int
	Verbose   bool
}

// RegisterCommonFlags adds the shared flags to fs.
func RegisterCommonFlags(fs *flag.FlagSet) *CommonFlags {
	c := &CommonFlags{}
	fs.StringVar(&c.ConfigDir, "config", config.DefaultDir(), "directory holding credentials.json, token.json and config.yaml")
	fs.IntVar(&c.PageSize, "page-size", 0, "Gmail list page size (<=500, 0 = server default)")
	fs.IntVar(&c.RPS, "rps", 4, "max requests per second (0 disables limiting)")
	fs.IntVar(&c.Port, "port", 0, "loopback port for the OAuth redirect (0 = any free port)")
	fs.BoolVar(&c.Verbose, "verbose", false, "log debug output")
	return c
}

// Resolve loads the configuration and applies only the flags that were set
// explicitly on fs, so config.yaml and the environment keep their values
// otherwise.
func (c *CommonFlags) Resolve(fs *flag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(c.ConfigDir)
	if err != nil {
		return config.Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "page-size":
			cfg.PageSize = c.PageSize
		case "rps":
			cfg.RPS = c.RPS
		case "port":
			cfg.AuthPort = c.Port
		}
	})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
