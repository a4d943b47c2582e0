package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/couchpart/cli/config"
	"github.com/pithecene-io/couchpart/cli/reader"
)

// loadConfig loads --config, or returns an empty config when unset.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(configFlag)
	if path == "" {
		return &config.Config{}, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitFailure)
	}
	return cfg, nil
}

// openInput opens the command's input argument. --header values replace
// the config file's default headers.
func openInput(c *cli.Context, cfg *config.Config) (*reader.Input, error) {
	if c.NArg() > 1 {
		return nil, cli.Exit("expected a single input file", exitFailure)
	}
	path := c.Args().First()
	if path == "" {
		path = reader.StdinPath
	}

	headers := c.StringSlice(headerFlag)
	if len(headers) == 0 {
		headers = cfg.Headers
	}

	in, err := reader.Open(path, c.Bool(responseFlag), headers)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitFailure)
	}
	return in, nil
}

// stringFlag returns the flag value when set, then fallback.
func stringFlag(c *cli.Context, name, fallback string) string {
	if c.IsSet(name) || fallback == "" {
		return c.String(name)
	}
	return fallback
}
