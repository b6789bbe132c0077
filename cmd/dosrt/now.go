package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tnicklin/dosrt/clock"
	"github.com/tnicklin/dosrt/logger"
	"github.com/tnicklin/dosrt/monotonic"
	"github.com/tnicklin/dosrt/walltime"
)

func addNowCommand(parent *cobra.Command, flags *rootFlags) {
	cmd := &cobra.Command{
		Use:   "now",
		Short: "Print one reading of each clock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags.configFiles)
			if err != nil {
				return err
			}
			ticks, rtc, ntpClock := hardware(cfg, logger.NewNop())
			if ntpClock != nil {
				if err := ntpClock.Sync(); err != nil {
					return fmt.Errorf("ntp sync: %w", err)
				}
			}
			return printNow(cmd.OutOrStdout(), ticks, rtc, cfg.WallClock.DayAnchor)
		},
	}
	parent.AddCommand(cmd)
}

func printNow(w io.Writer, ticks clock.TickSource, rtc clock.RTC, anchor uint32) error {
	wall, err := walltime.New(rtc, walltime.WithDayAnchor(anchor))
	if err != nil {
		return err
	}
	raw := ticks.Ticks()
	instant := monotonic.New(clock.TickFunc(func() uint32 { return raw })).Now()
	h, m, s := rtc.TimeOfDay()

	_, err = fmt.Fprintf(w, "ticks    %d of %d\nmono     %s (%s since midnight)\nrtc      %02d:%02d:%02d\nwall     %s\n",
		raw, clock.DayTicks,
		instant, instant.SaturatingDurationSince(monotonic.Instant{}),
		h, m, s,
		wall.Now(),
	)
	return err
}
