package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"soundsmith/internal/docs"
)

// Guide renders a built-in guide, or lists the topics when none is named.
func (r *Runner) Guide(ctx context.Context, cmd *cli.Command) error {
	topic := cmd.StringArg("topic")

	if topic == "" {
		r.writePlain("Guides:\n\n")
		for i, t := range docs.Topics() {
			r.writePlain("%d. %s - %s\n", i+1, t.Name, t.Title)
		}
		r.writePlain("\nRead one with 'soundsmith guide <name>'\n")
		return nil
	}

	out, err := docs.Render(topic, cmd.Int("width"))
	if err != nil {
		return err
	}

	return r.writePlain("%s", out)
}
