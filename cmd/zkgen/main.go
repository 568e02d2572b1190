// Command zkgen generates a typed Go client for a Zenkit workspace.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matthewbaird/zkgen/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
