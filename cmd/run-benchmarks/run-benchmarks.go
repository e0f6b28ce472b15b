package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/evergreen-ci/commitbench/benchmarks"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "run-benchmarks"
	app.Usage = "measure result parsing and summarizing on synthetic harness output"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "dir",
			Value: "build",
			Usage: "directory to write the benchmark report under",
		},
		cli.BoolFlag{
			Name:  "quick",
			Usage: "only run the smallest suite size",
		},
	}
	app.Action = func(c *cli.Context) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sizes := benchmarks.DefaultSizes
		if c.Bool("quick") {
			sizes = sizes[:1]
		}
		prefix := filepath.Join(c.String("dir"), fmt.Sprintf("summary_benchmark_report_%d", time.Now().Unix()))

		grip.Info(message.Fields{
			"message": "running result summary benchmarks",
			"sizes":   len(sizes),
			"report":  prefix,
		})

		return benchmarks.RunSummaryBenchmark(ctx, prefix, sizes)
	}

	grip.CatchEmergencyFatal(app.Run(os.Args))
}
