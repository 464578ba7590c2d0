package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/errmsg"
	"github.com/llehouerou/spotbridge/internal/identity"
	"github.com/llehouerou/spotbridge/internal/session"
)

var (
	playToken     string
	playUsername  string
	playPassword  string
	playShuffle   bool
	playPaused    bool
	playDuration  time.Duration
	playPreload   string
	playNoPersist bool
)

var playCmd = &cobra.Command{
	Use:   "play <track>",
	Short: "Play a track and stream player events",
	Long: `Logs in with --token or --username/--password, or reuses the stored
credentials of --key. Without any of them the session is anonymous. Player
events are written to stdout as JSON lines until the track ends or the
command is interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playToken, "token", "", "access token")
	playCmd.Flags().StringVarP(&playUsername, "username", "u", "", "account username")
	playCmd.Flags().StringVarP(&playPassword, "password", "p", "", "account password")
	playCmd.Flags().BoolVar(&playShuffle, "shuffle", false, "shuffle (stored as the new default)")
	playCmd.Flags().BoolVar(&playPaused, "paused", false, "load without starting playback")
	playCmd.Flags().DurationVar(&playDuration, "duration", 0, "length of simulated tracks")
	playCmd.Flags().StringVar(&playPreload, "preload", "", "track to preload as the next one")
	playCmd.Flags().BoolVar(&playNoPersist, "no-persist", false, "do not store the credentials")
	playCmd.MarkFlagsMutuallyExclusive("token", "password")
	playCmd.MarkFlagsRequiredTogether("username", "password")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(appOptions{events: cmd.OutOrStdout(), trackDuration: playDuration})
	if err != nil {
		return fail(errmsg.OpInitialize, err)
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn(errmsg.Format(errmsg.OpShutdown, err))
		}
	}()

	sub := a.hub.Subscribe()
	defer a.hub.Unsubscribe(sub)

	if _, err := login(ctx, a); err != nil {
		return fail(errmsg.OpLogin, err)
	}
	if err := a.coord.InitPlayer(ctx); err != nil {
		return fail(errmsg.OpPlayerInit, err)
	}

	var shuffle *bool
	if cmd.Flags().Changed("shuffle") {
		shuffle = &playShuffle
	}
	if err := a.coord.Load(ctx, args[0], !playPaused, shuffle); err != nil {
		return fail(errmsg.OpLoad, err)
	}
	if playPreload != "" {
		if err := a.coord.Preload(ctx, playPreload); err != nil {
			return fail(errmsg.OpPreload, err)
		}
	}

	for {
		select {
		case ev := <-sub.Events:
			switch ev.(type) {
			case engine.EndOfTrack, engine.Stopped, engine.Unavailable:
				return nil
			}
		case <-sub.Done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// login picks the auth method from the flags.
func login(ctx context.Context, a *app) (*session.Session, error) {
	key := persistenceKey()
	if playNoPersist {
		key = identity.NoKey
	}

	var method identity.AuthMethod
	switch {
	case playToken != "":
		method = identity.MethodToken{Token: playToken}
	case playPassword != "":
		method = identity.MethodPassword{Username: playUsername, Password: playPassword}
	default:
		return a.coord.Start(ctx, key)
	}
	return a.coord.Login(ctx, identity.LoginOptions{
		Key:    key,
		Method: method,
		Client: cfg.Client(),
	})
}
