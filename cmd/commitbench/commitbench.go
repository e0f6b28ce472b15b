package main

import (
	"os"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/operations"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const levelFlag = "level"

func main() {
	grip.CatchEmergencyFatal(buildApp().Run(os.Args))
}

func buildApp() *cli.App {
	app := cli.NewApp()

	app.Name = commitbench.AppName
	app.Usage = "run a benchmark harness across a range of git commits and upload the results"
	app.Version = commitbench.BuildRevision
	if app.Version == "" {
		app.Version = "dev"
	}

	app.Commands = []cli.Command{
		operations.Run(),
		operations.Commits(),
		operations.Summarize(),
		operations.Upload(),
		operations.Show(),
	}

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  levelFlag,
			Value: "info",
			Usage: "lowest visible log level: emergency, alert, critical, error, warning, notice, info, debug",
		},
	}

	app.Before = func(c *cli.Context) error {
		return errors.WithStack(loggingSetup(app.Name, c.String(levelFlag)))
	}

	return app
}

// loggingSetup names the global grip sender after the app and sets its
// threshold.
func loggingSetup(name, logLevel string) error {
	threshold := level.FromString(logLevel)
	if threshold == level.Invalid {
		return errors.Errorf("'%s' is not a valid log level", logLevel)
	}

	sender := grip.GetSender()
	sender.SetName(name)

	lvl := sender.Level()
	lvl.Threshold = threshold
	return errors.WithStack(sender.SetLevel(lvl))
}
