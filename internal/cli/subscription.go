package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/payschedule/internal/api/dto"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <request.json>",
		Short: "Build a subscription document from a create request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			var req dto.CreateSubscriptionRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return ierr.WithError(err).
					WithHint("Input is not a create subscription request").
					Mark(ierr.ErrParse)
			}

			resp, err := a.service.CreateSubscription(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp.Subscription)
		},
	}
}

func newPeriodsCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "periods <document>",
		Short: "List the next periods of a subscription without creating them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := a.loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			resp, err := a.service.ListUpcomingPeriods(cmd.Context(), sub.ID, count)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 12, "number of periods")
	return cmd
}

func newNextPaymentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next-payment <document>",
		Short: "Print the date the next period starts, or none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := a.loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			next, err := a.service.GetNextPaymentDate(cmd.Context(), sub.ID)
			if err != nil {
				return err
			}
			if next == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), next.Format(time.RFC3339))
			return nil
		},
	}
}

func newNextPeriodCmd(a *app) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "next-period <document>",
		Short: "Create the next period and print it",
		Long: `Create the next period of the subscription and print it. With --write
the updated document, with its period counters advanced, replaces the
input file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := a.loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			period, err := a.service.CreateNextPeriod(cmd.Context(), sub.ID)
			if err != nil {
				return err
			}
			if write {
				if err := a.saveDocument(cmd.Context(), sub.ID, args[0]); err != nil {
					return err
				}
			}
			if period == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}
			return printJSON(cmd, dto.NewPeriodResponse(sub.ID, period))
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the updated document back to the input file")
	return cmd
}

func newAlignCmd(a *app) *cobra.Command {
	var (
		anchor      string
		unit        string
		dayOfWeek   int
		dayOfMonth  int
		monthOfYear int
		prorate     bool
		strategy    string
		write       bool
	)

	cmd := &cobra.Command{
		Use:   "align <document>",
		Short: "Align the current phase to an anchor date or an alignment rule",
		Long: `Split the current phase into a lead-in phase ending on the anchor and a
regular phase starting there. The anchor is either --anchor or the next
date matching the rule given by --unit and its constraints.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.AlignSubscriptionRequest{
				Prorate:           prorate,
				ProrationStrategy: types.ProrationStrategy(strategy),
			}
			if anchor != "" {
				date, err := a.parseDate(anchor)
				if err != nil {
					return err
				}
				req.AnchorDate = &date
			}
			if unit != "" {
				req.Rule = &types.AlignmentRuleParams{Unit: types.AlignmentUnit(strings.ToUpper(unit))}
				if cmd.Flags().Changed("day-of-week") {
					req.Rule.DayOfWeek = lo.ToPtr(dayOfWeek)
				}
				if cmd.Flags().Changed("day-of-month") {
					req.Rule.DayOfMonth = lo.ToPtr(dayOfMonth)
				}
				if cmd.Flags().Changed("month-of-year") {
					req.Rule.MonthOfYear = lo.ToPtr(monthOfYear)
				}
			}

			sub, err := a.loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			resp, err := a.service.AlignSubscription(cmd.Context(), sub.ID, req)
			if err != nil {
				return err
			}
			if write {
				if err := a.saveDocument(cmd.Context(), sub.ID, args[0]); err != nil {
					return err
				}
			}
			return printJSON(cmd, resp.Subscription)
		},
	}
	cmd.Flags().StringVar(&anchor, "anchor", "", "anchor date")
	cmd.Flags().StringVar(&unit, "unit", "", "alignment rule unit: W, M or Y")
	cmd.Flags().IntVar(&dayOfWeek, "day-of-week", 1, "ISO weekday, 1 is Monday")
	cmd.Flags().IntVar(&dayOfMonth, "day-of-month", 1, "day of month")
	cmd.Flags().IntVar(&monthOfYear, "month-of-year", 1, "month of year")
	cmd.Flags().BoolVar(&prorate, "prorate", false, "prorate the lead-in amount")
	cmd.Flags().StringVar(&strategy, "strategy", "", "proration strategy: calendar_year or period")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the updated document back to the input file")
	return cmd
}
