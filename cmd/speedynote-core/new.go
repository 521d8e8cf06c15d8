package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speedynote/speedynote-core/internal/document"
	"github.com/speedynote/speedynote-core/internal/persistence"
)

var newEdgeless bool

var newCmd = &cobra.Command{
	Use:   "new <bundle-dir>",
	Short: "Create a new, empty note bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolVar(&newEdgeless, "edgeless", false, "create an edgeless (infinite canvas) bundle instead of paged")
}

func runNew(_ *cobra.Command, args []string) error {
	bundlePath := args[0]
	mode := document.ModePaged
	if newEdgeless {
		mode = document.ModeEdgeless
	}

	doc := document.New(bundlePath, mode)
	if err := persistence.SaveMetadata(bundlePath, doc); err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}

	fmt.Printf("Created %s bundle at %s (id %s)\n", mode, bundlePath, doc.ID)
	return nil
}
