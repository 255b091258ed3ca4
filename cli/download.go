package cli

import (
	"fmt"
	"net/url"
	"path"

	"github.com/spf13/cobra"
)

func newDownloadCmd(a *app) *cobra.Command {
	var (
		name      string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "download <ref>",
		Short: "Fetch a raw sample into the artifact directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := args[0]
			if name == "" {
				name = artifactNameFor(ref)
			}
			if outputDir == "" {
				outputDir = a.cfg.ArtifactDir
			}

			dest, err := a.loader().Fetch(cmd.Context(), ref, outputDir, name)
			if err != nil {
				return fmt.Errorf("download %s: %w", ref, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "artifact file name (default: last element of ref)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "destination directory (default: ARTIFACT_DIR)")
	return cmd
}

// artifactNameFor derives a file name from the last path element of ref.
func artifactNameFor(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		return "raw_sample.csv"
	}
	return base
}
