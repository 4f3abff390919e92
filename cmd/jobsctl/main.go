// jobsctl records and reviews finished video jobs from the terminal. It
// shares the Log Store and pricing table with the web server.
package main

import (
	"errors"
	"os"
	"time"

	"github.com/umputun/go-flags"

	"videojobs/internal/cli"
	"videojobs/internal/core"
	applog "videojobs/internal/log"
)

type options struct {
	Add     addCommand     `command:"add" description:"record a finished video"`
	Summary summaryCommand `command:"summary" description:"show jobs and income of the current month"`
	Months  monthsCommand  `command:"months" description:"list every month with its jobs"`
	Types   typesCommand   `command:"types" description:"list video types and their prices"`
}

func main() {
	cli.LoadEnvFile()

	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		if command == nil {
			return nil
		}
		cfg := cli.LoadAndValidateConfig()
		logger, closer := cli.SetupLogger(cfg, applog.ComponentCLI)
		if closer != nil {
			defer closer.Close()
		}

		ctx, cancel := cli.SignalContext(logger.Logger)
		defer cancel()

		res := cli.InitBackend(ctx, logger.Logger, cfg)
		defer res.Cleanup()

		if c, ok := command.(commonSetter); ok {
			c.setCommon(commonOpts{
				ctx:       ctx,
				service:   res.Service,
				formatter: core.NewFormatter(cfg.CurrencyLocale),
				out:       os.Stdout,
				now:       time.Now,
			})
		}
		return command.Execute(args)
	}

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
