package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/couchpart/cli/reader"
	"github.com/pithecene-io/couchpart/cli/render"
	"github.com/pithecene-io/couchpart/cli/tui"
)

// InspectCommand returns the inspect command.
// Inspect reads a response and reports its document and parts without
// storing anything.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect a CouchDB document response",
		ArgsUsage: "<file|->",
		Flags:     append(TUIReadOnlyFlags(), InputFlags()...),
		Action:    inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c, cfg.Output.Format)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	in, err := openInput(c, cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	doc, err := in.Read()
	if err != nil {
		return exitError("read document", err)
	}

	resp, err := reader.Inspect(in.Source, doc)
	if err != nil {
		return exitError("read attachments", err)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewInspectDocument, resp)
	}
	return r.Render(resp)
}
