// Command rae infers and checks the output schemas of relational algebra
// queries.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/rae/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return cli.ExitSuccess
	}

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		// Usage errors: bad flags, wrong argument count.
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCommandError
	}
	if exitErr.Code == cli.ExitCommandError {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return exitErr.Code
}
