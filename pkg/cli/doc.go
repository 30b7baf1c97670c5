/*
Package cli provides the terminal-facing helpers of the devserver command.

Console is the output sink for status lines such as
"Serving on http://localhost:4200/" and for error messages, which are
printed without stack traces:

	console := cli.NewConsole(os.Stdout, os.Stderr)
	opts.Notifier = console
	if err := mgr.Start(ctx, opts); err != nil {
		console.Fatal(err)
		os.Exit(cli.ExitCode(err))
	}

Formatters render command results (the lifecycle history) as text tables,
JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, entries); err != nil {
		return err
	}

For shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
