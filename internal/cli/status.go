package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/spotbridge/internal/config"
	"github.com/llehouerou/spotbridge/internal/errmsg"
	"github.com/llehouerou/spotbridge/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored logins and playback preferences",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type storedLogin struct {
	key      string
	username string
	updated  time.Time
}

func runStatus(cmd *cobra.Command, _ []string) error {
	st, err := state.Open("")
	if err != nil {
		return fail(errmsg.OpInitialize, err)
	}
	defer st.Close()

	logins, err := listLogins(cmd, st)
	if err != nil {
		return fail(errmsg.OpInitialize, err)
	}
	prefs, err := st.GetPreferences()
	if err != nil {
		return fail(errmsg.OpInitialize, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Device:      %s (%s, %s)\n", cfg.Device.Name, cfg.Device.Type, cfg.Device.Locale)
	limit := "unlimited"
	if n, _ := cfg.SizeLimit(); n > 0 {
		limit = humanize.Bytes(uint64(n))
	}
	fmt.Fprintf(out, "Cache:       %s (%s)\n", cfg.Cache.Dir, limit)
	fmt.Fprintf(out, "Credentials: %s backend, default key %q\n", cfg.Credentials.Backend, cfg.Credentials.DefaultKey)
	fmt.Fprintf(out, "Shuffle:     %t\n", prefs.Shuffle)
	if prefs.LastTrack != "" {
		fmt.Fprintf(out, "Last track:  spotify:track:%s\n", prefs.LastTrack)
	}
	printLogins(out, logins)
	return nil
}

func listLogins(cmd *cobra.Command, st *state.Manager) ([]storedLogin, error) {
	switch cfg.Credentials.Backend {
	case config.BackendSQLite:
		keys, err := st.Credentials().Keys(cmd.Context())
		if err != nil {
			return nil, err
		}
		out := make([]storedLogin, len(keys))
		for i, k := range keys {
			out[i] = storedLogin{key: string(k.Key), username: k.Username, updated: k.UpdatedAt}
		}
		return out, nil
	case config.BackendFile:
		entries, err := os.ReadDir(cfg.Credentials.Dir)
		if os.IsNotExist(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		var out []storedLogin
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			out = append(out, storedLogin{key: strings.TrimSuffix(e.Name(), ".json"), updated: info.ModTime()})
		}
		return out, nil
	}
	return nil, nil
}

func printLogins(w io.Writer, logins []storedLogin) {
	if len(logins) == 0 {
		fmt.Fprintln(w, "Logins:      none stored")
		return
	}
	fmt.Fprintln(w, "Logins:")
	for _, l := range logins {
		user := l.username
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(w, "  %-12s %-16s %s\n", l.key, user, humanize.Time(l.updated))
	}
}
