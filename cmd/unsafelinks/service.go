package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/unsafelinks/internal/watch"
)

// runService watches the clipboard until SIGINT or SIGTERM.
func runService(cmd *cobra.Command, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	w := watch.New(newBackend(), matcherFrom(v), v.GetDuration("interval"))
	w.OnDecoded = func(_, decoded string) {
		fmt.Fprintf(out, "Decoded SafeLink to: %s\n", decoded)
	}

	fmt.Fprintf(out, "SafeLinks decoder service started. Polling every %s. Press Ctrl+C to stop.\n", w.Interval())
	err := w.Run(ctx)
	fmt.Fprintln(out, "\nSafeLinks decoder service stopped.")
	return err
}
