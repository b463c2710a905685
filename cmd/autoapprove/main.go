// Command autoapprove reconciles pending panel deposits against the
// per-bank approval queues.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eshaffer321/deposit-autoapprove/internal/cli"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	app := cli.NewApp(version)
	if err := app.Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
