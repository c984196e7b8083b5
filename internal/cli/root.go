package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/flexprice/payschedule/internal/cache"
	"github.com/flexprice/payschedule/internal/config"
	"github.com/flexprice/payschedule/internal/domain/subscription"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/logger"
	"github.com/flexprice/payschedule/internal/publisher"
	"github.com/flexprice/payschedule/internal/repository/memory"
	"github.com/flexprice/payschedule/internal/service"
	"github.com/flexprice/payschedule/internal/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// app holds what the commands share. Documents are loaded into an
// in-memory store so every command goes through the subscription service.
type app struct {
	cfg     *config.Configuration
	logger  *logger.Logger
	store   *memory.SubscriptionStore
	service service.SubscriptionService
	verbose bool
}

func (a *app) init() error {
	cfg, err := config.NewConfig()
	if err != nil {
		cfg = config.GetDefaultConfig()
	}
	if a.verbose {
		cfg.Logging.Level = types.LogLevelDebug
	}
	// the CLI has no consumers
	cfg.Events.Enabled = false
	a.cfg = cfg

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}
	a.logger = log

	a.store = memory.NewSubscriptionStore()
	a.service = service.NewSubscriptionService(service.NewServiceParams(
		log,
		cfg,
		nil,
		cache.Initialize(cfg, log),
		a.store,
		publisher.NewEventPublisher(cfg, log, nil),
	))
	return nil
}

// NewRootCmd builds the payschedule command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "payschedule",
		Short: "Plan subscription phases and billing periods",
		Long: `payschedule works on subscription documents: JSON files holding a
subscription with its phases. Commands read a document from a file or
stdin ("-") and print JSON to stdout.

Examples:
  payschedule interval P1M --from 2020-01-31 --count 3
  payschedule create request.json > sub.json
  payschedule periods sub.json --count 12
  payschedule next-period sub.json --write
  payschedule align sub.json --unit Y --day-of-month 1 --month-of-year 1 --prorate`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newIntervalCmd(a),
		newCreateCmd(a),
		newPeriodsCmd(a),
		newNextPaymentCmd(a),
		newNextPeriodCmd(a),
		newAlignCmd(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		data, _ := json.MarshalIndent(ierr.NewErrorResponse(err), "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		os.Exit(1)
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Cannot open %s", path).
				Mark(ierr.ErrNotFound)
		}
		defer f.Close()
		r = f
	}
	return io.ReadAll(r)
}

// loadDocument reads a subscription document and stores it
func (a *app) loadDocument(cmd *cobra.Command, path string) (*subscription.Subscription, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}

	var sub subscription.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Input is not a subscription document").
			Mark(ierr.ErrParse)
	}
	if sub.ID == "" {
		sub.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION)
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := a.store.Create(cmd.Context(), &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// saveDocument writes the stored subscription back to path
func (a *app) saveDocument(ctx context.Context, id, path string) error {
	if path == "-" {
		return ierr.NewError("cannot write back to stdin").
			WithHint("Use a file path together with --write").
			Mark(ierr.ErrInvalidArgument)
	}
	sub, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode output").
			Mark(ierr.ErrSystem)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// parseDate accepts YYYY-MM-DD in the billing timezone or RFC 3339
func (a *app) parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(time.DateOnly, value, a.cfg.Billing.Location()); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Invalid date %q, use YYYY-MM-DD or RFC 3339", value).
			Mark(ierr.ErrParse)
	}
	return t, nil
}
