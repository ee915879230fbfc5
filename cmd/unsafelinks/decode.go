package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"go.klb.dev/unsafelinks/internal/clip"
	"go.klb.dev/unsafelinks/internal/safelink"
)

const noSafeLinkMsg = "No valid SafeLink URL found. Use --help for usage instructions."

// runDecode decodes input, or the clipboard when input is empty, prints the
// result and copies it back to the clipboard.
func runDecode(cmd *cobra.Command, input string) error {
	out := cmd.OutOrStdout()

	var backend clip.Backend
	if input == "" {
		backend = newBackend()
		input = backend.ReadText()
		slog.Debug("read clipboard", "backend", backend.Name(), "preview", clip.Preview(input))
	}

	decoded, ok := safelink.Decode(input)
	if !ok {
		fmt.Fprintln(out, noSafeLinkMsg)
		return nil
	}
	fmt.Fprintln(out, decoded)

	if backend == nil {
		backend = newBackend()
	}
	if err := backend.WriteText(decoded); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	clip.LogText("safelink decoded", backend.Name(), decoded)
	return nil
}
