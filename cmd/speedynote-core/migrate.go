package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speedynote/speedynote-core/internal/document"
	"github.com/speedynote/speedynote-core/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <bundle-dir>",
	Short: "Migrate a bundle's legacy flat-file metadata to the JSON format",
	Long: `migrate loads a bundle's metadata, triggering the legacy-file
migration if the bundle predates the JSON metadata format, then removes
the legacy files. An already-migrated bundle keeps its JSON metadata as
it is; any legacy files still beside it are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, args []string) error {
	bundlePath := args[0]
	doc := document.New(bundlePath, document.ModePaged)

	if err := persistence.LoadMetadata(bundlePath, doc); err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}
	persistence.RemoveLegacyFiles(bundlePath)

	fmt.Printf("Bundle %s is on notebook id %s (pdf=%q, %d bookmarks)\n",
		bundlePath, doc.ID, doc.LinkedPDFPath, len(doc.Bookmarks))
	return nil
}
