package main

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newSolveCmd() *cobra.Command {
	var listFile string
	cmd := &cobra.Command{
		Use:   "solve GRID [GRID...] [-- WORD...]",
		Short: "Find words in grids (text or .wss; \"-\" is stdin, \"sample\" the demo grid)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grids, extra := args, []string(nil)
			if at := cmd.ArgsLenAtDash(); at >= 0 {
				grids, extra = args[:at], args[at:]
			}
			if len(grids) == 0 {
				return fmt.Errorf("no grid given")
			}
			list, err := wordList(listFile, extra, grids)
			if err != nil {
				return err
			}
			return solve(cmd, grids, list)
		},
	}
	cmd.Flags().StringVarP(&listFile, "words", "w", "", "word list file, one word per line")
	return cmd
}

// solve runs every grid concurrently and prints the reports in argument order.
func solve(cmd *cobra.Command, grids, list []string) error {
	reports := make([]bytes.Buffer, len(grids))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range grids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return solveOne(&reports[i], path, cmd.InOrStdin(), list)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i := range reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if _, err := reports[i].WriteTo(out); err != nil {
			return err
		}
	}
	return nil
}

func solveOne(w io.Writer, path string, stdin io.Reader, list []string) error {
	e, err := loadGrid(path, stdin)
	if err != nil {
		return err
	}
	log.Debug().Str("grid", path).Int("rows", e.RowCount()).Int("cols", e.RowLength()).Int("words", len(list)).Msg("solving")

	fmt.Fprintf(w, "== %s (%dx%d)\n", path, e.RowLength(), e.RowCount())
	found := 0
	var report strings.Builder
	for _, word := range list {
		matches := e.Locate(word)
		e.Find(word)
		if len(matches) == 0 {
			fmt.Fprintf(&report, "  %-12s not found\n", word)
			continue
		}
		found++
		where := make([]string, len(matches))
		for i, m := range matches {
			where[i] = describe(e, m)
		}
		fmt.Fprintf(&report, "  %-12s %s\n", word, strings.Join(where, ", "))
	}
	renderGrid(w, e)
	fmt.Fprintf(w, "found %d of %d words, %d cells\n", found, len(list), e.MatchCount())
	_, err = io.WriteString(w, report.String())
	return err
}
