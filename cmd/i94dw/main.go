// Command i94dw builds the I-94 immigration star schema and loads it into
// Redshift.
//
//	i94dw transform                 read the raw inputs and write the eight tables
//	i94dw warehouse reset           drop and recreate the warehouse tables
//	i94dw warehouse load [--reset]  COPY the written tables into the warehouse
//	i94dw config show               print the effective configuration
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// Register the file, s3, s3a and gs stores.
	_ "github.com/ajitpratap0/i94dw/pkg/connector/destinations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
