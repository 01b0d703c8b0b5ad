package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// VectorsCommand returns the vectors subcommand group.
func VectorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "vectors",
		Usage: "Inspect the vector index service",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show vector index status",
				Action: vectorsStatus,
			},
		},
	}
}

func vectorsStatus(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}

	status, err := rt.Client.VectorStatus(c.Context)
	if err != nil {
		return fmt.Errorf("vector status: %w", err)
	}
	return rt.print(c, status)
}
