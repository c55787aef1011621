package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kubescape/pgtree/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], streams{
		in:       os.Stdin,
		out:      os.Stdout,
		err:      os.Stderr,
		terminal: utils.IsTerminal(os.Stdout),
	})
	stop()
	os.Exit(code)
}
