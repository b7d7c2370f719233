package cli

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cognicore/chatpulse/internal/chatlog"
	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
)

func (a *app) importCommand() *cobra.Command {
	var (
		server string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "import <glob>...",
		Short: "Import exported chat history from JSONL files",
		Long: `Import reads JSONL exports, one message per line, and stores them.
Patterns may use ** to match nested directories. Messages already stored
(same id) are skipped.

Examples:
  chatpulse import exports/guild-1.jsonl
  chatpulse import "exports/**/*.jsonl" --server guild-1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			files, err := chatlog.Expand(args)
			if err != nil {
				return err
			}

			engine, _, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			var imported, duplicates, invalid, malformed int
			for _, path := range files {
				records, skipped, err := chatlog.LoadFromJSONL(path)
				if err != nil {
					return err
				}
				for _, le := range skipped {
					a.logger.Warn("skipping malformed line", "file", le.Path, "line", le.Line, "err", le.Err)
				}
				malformed += len(skipped)

				var bar *progressbar.ProgressBar
				if !quiet {
					bar = progressbar.NewOptions(len(records),
						progressbar.OptionSetWriter(cmd.ErrOrStderr()),
						progressbar.OptionEnableColorCodes(true),
						progressbar.OptionShowBytes(false),
						progressbar.OptionSetWidth(40),
						progressbar.OptionShowCount(),
						progressbar.OptionSetDescription(fmt.Sprintf("[cyan]Importing[reset] %s", path)),
						progressbar.OptionOnCompletion(func() {
							fmt.Fprintln(cmd.ErrOrStderr())
						}),
					)
				}

				for _, rec := range records {
					_, err := engine.RecordMessage(ctx, rec.Message(server))
					switch {
					case err == nil:
						imported++
					case errors.Is(err, internalerr.ErrDuplicate):
						duplicates++
					case errors.Is(err, internalerr.ErrInvalidInput):
						invalid++
						a.logger.Warn("skipping invalid message", "file", path, "id", rec.ID, "err", err)
					default:
						return fmt.Errorf("import %s: %w", path, err)
					}
					if bar != nil {
						bar.Add(1)
					}
				}
				if bar != nil {
					bar.Finish()
				}
			}

			w := out(cmd)
			fmt.Fprintf(w, "Import complete:\n")
			fmt.Fprintf(w, "  Files:      %d\n", len(files))
			fmt.Fprintf(w, "  Imported:   %d\n", imported)
			fmt.Fprintf(w, "  Duplicates: %d\n", duplicates)
			fmt.Fprintf(w, "  Invalid:    %d\n", invalid)
			fmt.Fprintf(w, "  Malformed:  %d\n", malformed)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server id for records that omit one")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}
