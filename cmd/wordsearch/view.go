package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordsearch/internal/view"
	"github.com/robalobadob/wordsearch/internal/wsfile"
)

func newViewCmd() *cobra.Command {
	var (
		out      string
		listFile string
	)
	cmd := &cobra.Command{
		Use:   "view GRID [-- WORD...]",
		Short: "Browse a grid in the terminal; type a word and press Enter to search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadGrid(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			list, err := wordList(listFile, args[1:], nil)
			if err != nil {
				return err
			}
			e.FindAll(list)

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			if err := screen.Init(); err != nil {
				return err
			}
			v := view.NewViewer(e)
			err = v.Run(cmd.Context(), screen, e.Find)
			screen.Fini()
			if err != nil {
				return err
			}

			if out != "" {
				if err := wsfile.WriteFile(out, e.State()); err != nil {
					return err
				}
				log.Info().Str("out", out).Msg("saved")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "save grid + highlights to this .wss file on exit")
	cmd.Flags().StringVarP(&listFile, "words", "w", "", "word list to highlight before starting")
	return cmd
}
