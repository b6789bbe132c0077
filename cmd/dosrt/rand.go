package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tnicklin/dosrt/clock"
	"github.com/tnicklin/dosrt/random"
)

func addRandCommand(parent *cobra.Command) {
	var (
		count int
		seed  uint32
	)

	cmd := &cobra.Command{
		Use:   "rand",
		Short: "Print xorshift values seeded from the tick counter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := random.Seeded(seed)
			if seed == 0 {
				src = random.NewSource(clock.HostTicks(clock.System()), uint32(os.Getpid()))
			}
			for i := 0; i < count; i++ {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d\n", src.Uint32()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "how many values")
	cmd.Flags().Uint32Var(&seed, "seed", 0, "fixed seed (0 seeds from the tick counter)")
	parent.AddCommand(cmd)
}
