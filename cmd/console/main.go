// Command console is a small admin console for the hireline dashboard. It
// drives the resource stores and the auth session against the REST backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	opts := &rootOptions{}
	err := newRootCmd(opts).ExecuteContext(ctx)
	opts.close()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
