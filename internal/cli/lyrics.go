package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/errmsg"
	"github.com/llehouerou/spotbridge/internal/lyrics"
)

var (
	lyricsLRC    bool
	lyricsSource string
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics <track>",
	Short: "Print timed lyrics of a track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var opts appOptions
		if lyricsSource != "" {
			lines, err := readLRC(lyricsSource)
			if err != nil {
				return fail(errmsg.OpLyrics, err)
			}
			opts.lyrics = lines
		}

		a, err := newApp(opts)
		if err != nil {
			return fail(errmsg.OpInitialize, err)
		}
		defer a.close()

		if _, err := a.coord.Start(ctx, persistenceKey()); err != nil {
			return fail(errmsg.OpConnect, err)
		}
		lines, err := a.coord.Lyrics(ctx, args[0])
		if err != nil {
			return fail(errmsg.OpLyrics, err)
		}

		out := cmd.OutOrStdout()
		if lyricsLRC {
			return lyrics.Write(out, lyrics.Meta{}, lines)
		}
		for _, l := range lines {
			fmt.Fprintf(out, "[%s] %s\n", formatClock(l.Start), l.Words)
		}
		return nil
	},
}

func init() {
	lyricsCmd.Flags().BoolVar(&lyricsLRC, "lrc", false, "output in LRC format")
	lyricsCmd.Flags().StringVar(&lyricsSource, "source", "", "LRC file served by the simulated engine")
	rootCmd.AddCommand(lyricsCmd)
}

func readLRC(path string) ([]engine.LyricsLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lines, _, err := lyrics.Parse(f)
	return lines, err
}
