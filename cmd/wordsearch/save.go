package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordsearch/internal/wsfile"
)

func newSaveCmd() *cobra.Command {
	var (
		out      string
		listFile string
		compress bool
	)
	cmd := &cobra.Command{
		Use:   "save GRID -o OUT.wss [-- WORD...]",
		Short: "Search words in a grid and save grid + highlights as a .wss file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			path := args[0]
			list, err := wordList(listFile, args[1:], args[:1])
			if err != nil {
				return err
			}
			e, err := loadGrid(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			e.FindAll(list)

			var opts []wsfile.Option
			if compress {
				opts = append(opts, wsfile.WithCompression())
			}
			if err := wsfile.WriteFile(out, e.State(), opts...); err != nil {
				return err
			}
			log.Info().Str("out", out).Int("cells", e.MatchCount()).Msg("saved")
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%dx%d, %d highlighted cells)\n",
				out, e.RowLength(), e.RowCount(), e.MatchCount())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output .wss file")
	cmd.Flags().StringVarP(&listFile, "words", "w", "", "word list file, one word per line")
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the payload")
	return cmd
}
