package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/safe-harbor/internal/cli"
	"github.com/Veraticus/safe-harbor/internal/config"
	"github.com/Veraticus/safe-harbor/internal/rentroll"
)

func templateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a sample rent roll CSV",
		Long: `Write a rent roll template with the expected header and three example rows.
Fill it in and pass it to 'harbor analyze'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeTemplate(cmd.OutOrStdout(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default: standard output)")
	return cmd
}

func writeTemplate(out io.Writer, output string) error {
	if output == "" {
		_, err := io.WriteString(out, rentroll.Template())
		return err
	}

	path := config.ExpandPath(output)
	if err := os.WriteFile(path, []byte(rentroll.Template()), 0600); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	slog.Debug("Wrote rent roll template", "path", path)
	_, _ = fmt.Fprintln(out, cli.FormatSuccess("Wrote rent roll template to "+path))
	return nil
}
