package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/couchpart/cli/reader"
	"github.com/pithecene-io/couchpart/cli/render"
	"github.com/pithecene-io/couchpart/cli/tui"
	"github.com/pithecene-io/couchpart/frame"
	"github.com/pithecene-io/couchpart/iox"
)

// FramesCommand returns the frames command.
// Frames decodes a chunk frame stream written by extract --frames and
// checks its ordering.
func FramesCommand() *cli.Command {
	return &cli.Command{
		Name:      "frames",
		Usage:     "Summarize a chunk frame stream",
		ArgsUsage: "<file|->",
		Flags: append(TUIReadOnlyFlags(),
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Show aggregate counts instead of per-document detail",
			},
		),
		Action: framesAction,
	}
}

func framesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c, "")
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	var src io.Reader = os.Stdin
	if path := c.Args().First(); path != "" && path != reader.StdinPath {
		f, err := os.Open(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("open frame stream: %v", err), exitFailure)
		}
		defer iox.DiscardClose(f)
		src = f
	}

	sum, err := frame.Summarize(src)
	if err != nil {
		return exitError("decode frames", err)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStatsFrames, reader.StatsFromSummary(sum))
	}
	if c.Bool("stats") {
		return r.Render(reader.StatsFromSummary(sum))
	}
	return r.Render(sum)
}
