package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telagraphic/sfx-board/catalog"
)

// importCmd scans a clip directory and registers new files in the manifest
var importCmd = &cobra.Command{
	Use:   "import [directory]",
	Short: "Add new audio files to the manifest",
	Long: `Scan a directory for .mp3 files and append a manifest entry for every
file the manifest does not list yet. Clip names are derived from the file
names. Existing entries are left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "audio-clips"
		if len(args) == 1 {
			dir = args[0]
		}
		manifest, err := cmd.Flags().GetString("manifest")
		if err != nil {
			return err
		}

		added, err := catalog.ImportDir(manifest, dir)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		if len(added) == 0 {
			fmt.Println("No new clips found")
			return nil
		}
		for _, clip := range added {
			fmt.Printf("Added %q (%s)\n", clip.Name, clip.File)
		}
		fmt.Printf("New clips added to %s\n", manifest)
		return nil
	},
}

func init() {
	importCmd.Flags().StringP("manifest", "m", "soundclips.json", "manifest file to update")
	rootCmd.AddCommand(importCmd)
}
