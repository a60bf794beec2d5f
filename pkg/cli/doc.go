/*
Package cli provides command-line interface utilities for Ganymede.

The cli package includes output formatters, typed command errors, and signal
handling helpers used by the ganymede command.

Output Formatting:

The cli package supports text and JSON output formats for displaying command
results:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler(context.Background())
	// ctx is cancelled when a shutdown signal arrives
*/
package cli
