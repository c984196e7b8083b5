package cli

import (
	"fmt"
	"time"

	"github.com/flexprice/payschedule/internal/types"
	"github.com/spf13/cobra"
)

func newIntervalCmd(a *app) *cobra.Command {
	var (
		from  string
		count int
	)

	cmd := &cobra.Command{
		Use:   "interval <spec>",
		Short: "Parse an interval and list the dates it produces",
		Long: `Parse an interval such as P1Y2M or P2W, print its canonical form and
description, and with --from the first --count period starts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, err := types.ParseInterval(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, interval.String())
			fmt.Fprintln(out, interval.Describe())

			if from == "" {
				return nil
			}
			start, err := a.parseDate(from)
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				fmt.Fprintln(out, interval.Multiply(i).AddTo(start).Format(time.DateOnly))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date to apply the interval to")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of dates to print with --from")
	return cmd
}
