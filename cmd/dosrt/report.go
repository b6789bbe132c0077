package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tnicklin/dosrt/logger"
	"github.com/tnicklin/dosrt/store"
)

func addReportCommand(parent *cobra.Command, flags *rootFlags) {
	var sessionID int64

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recorded drift sessions",
		Long: `Load the SQLite snapshot written by the monitor and print a drift summary
per session. With --session, also list that session's midnight wraps.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags.configFiles)
			if err != nil {
				return err
			}
			st := store.NewSQLiteStore(store.Params{Path: cfg.Store.Path, Logger: logger.NewNop()})
			ctx := cmd.Context()
			if err := st.Open(ctx); err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			if err := st.RestoreFromDisk(ctx, cfg.Store.Path); err != nil {
				return fmt.Errorf("restore %s: %w", cfg.Store.Path, err)
			}
			return writeReport(ctx, cmd.OutOrStdout(), st, sessionID)
		},
	}
	cmd.Flags().Int64Var(&sessionID, "session", 0, "only report this session")
	parent.AddCommand(cmd)
}

func writeReport(ctx context.Context, w io.Writer, st store.Store, sessionID int64) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		_, err = fmt.Fprintln(w, "no sessions recorded")
		return err
	}

	for _, sess := range sessions {
		if sessionID != 0 && sess.ID != sessionID {
			continue
		}
		sum, err := st.SummarizeDrift(ctx, sess.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s started=@%d samples=%d wraps=%d regressions=%d drift[min=%s max=%s last=%s]\n",
			sess.Label(), sess.StartedUnix, sum.Samples, sum.Wraps, sum.Regressions,
			sum.MinDrift, sum.MaxDrift, sum.LastDrift,
		)

		if sessionID == 0 {
			continue
		}
		wraps, err := st.ListWraps(ctx, sess.ID)
		if err != nil {
			return err
		}
		for _, ev := range wraps {
			fmt.Fprintf(w, "  wrap at @%d: %d -> %d\n", ev.WallUnix, ev.PrevRaw, ev.CurRaw)
		}
	}
	return nil
}
