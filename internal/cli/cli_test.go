package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flexprice/payschedule/internal/api/dto"
	"github.com/flexprice/payschedule/internal/domain/subscription"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// createDocument builds a yearly 100 USD subscription starting 2020-07-01
func createDocument(t *testing.T) string {
	t.Helper()

	req := writeFile(t, "request.json", `{
		"start_date": "2020-07-01T00:00:00Z",
		"phases": [{"interval": "P1Y", "amount": "100", "currency": "USD"}]
	}`)
	out, err := execute(t, "", "create", req)
	require.NoError(t, err)
	return writeFile(t, "sub.json", out)
}

func decodeDocument(t *testing.T, data []byte) *subscription.Subscription {
	t.Helper()
	var sub subscription.Subscription
	require.NoError(t, json.Unmarshal(data, &sub))
	return &sub
}

func TestIntervalCommand(t *testing.T) {
	out, err := execute(t, "", "interval", "P1M", "--from", "2020-01-31", "--count", "3")
	require.NoError(t, err)
	assert.Equal(t, "P1M\n1 month\n2020-01-31\n2020-02-29\n2020-03-31\n", out)

	out, err = execute(t, "", "interval", "P1Y2M")
	require.NoError(t, err)
	assert.Equal(t, "P1Y2M\n1 year 2 months\n", out)

	_, err = execute(t, "", "interval", "every month")
	assert.True(t, ierr.IsParse(err))
}

func TestCreateCommand(t *testing.T) {
	path := createDocument(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	sub := decodeDocument(t, data)
	assert.NotEmpty(t, sub.ID)
	assert.NotEmpty(t, sub.Key)
	require.Len(t, sub.Phases, 1)
	assert.Equal(t, "P1Y", sub.Phases[0].Interval.String())
	assert.Equal(t, "USD", sub.Phases[0].Amount.Currency)
}

func TestPeriodsCommand(t *testing.T) {
	path := createDocument(t)

	out, err := execute(t, "", "periods", path, "-n", "2")
	require.NoError(t, err)

	var resp dto.ListUpcomingPeriodsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Periods, 2)
	assert.True(t, resp.Periods[0].StartDate.Equal(time.Date(2020, time.July, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, resp.Periods[1].EndDate.Equal(time.Date(2022, time.July, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 365, resp.Periods[0].Days)

	// listing does not advance the document
	sub := decodeDocument(t, lo.Must(os.ReadFile(path)))
	assert.Zero(t, sub.Phases[0].PeriodsCreated)
}

func TestNextPeriodCommand_Write(t *testing.T) {
	path := createDocument(t)

	out, err := execute(t, "", "next-payment", path)
	require.NoError(t, err)
	assert.Equal(t, "2020-07-01T00:00:00Z\n", out)

	for i := 0; i < 2; i++ {
		_, err := execute(t, "", "next-period", path, "--write")
		require.NoError(t, err)
	}

	out, err = execute(t, "", "next-payment", path)
	require.NoError(t, err)
	assert.Equal(t, "2022-07-01T00:00:00Z\n", out)

	sub := decodeDocument(t, lo.Must(os.ReadFile(path)))
	assert.Equal(t, 2, sub.Phases[0].PeriodsCreated)
}

func TestAlignCommand(t *testing.T) {
	doc := lo.Must(os.ReadFile(createDocument(t)))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "rule",
			args: []string{"--unit", "y", "--day-of-month", "1", "--month-of-year", "1", "--prorate"},
			want: "50.41",
		},
		{
			name: "anchor",
			args: []string{"--anchor", "2021-01-01", "--prorate"},
			want: "50.27",
		},
		{
			name: "anchor without proration",
			args: []string{"--anchor", "2021-01-01"},
			want: "100.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, string(doc), append([]string{"align", "-"}, tt.args...)...)
			require.NoError(t, err)

			sub := decodeDocument(t, []byte(out))
			require.Len(t, sub.Phases, 2)
			assert.Equal(t, tt.want, sub.Phases[0].Amount.Value.StringFixed(2))
			assert.True(t, sub.Phases[1].StartDate.Equal(time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)))
		})
	}

	_, err := execute(t, string(doc), "align", "-")
	assert.True(t, ierr.IsValidation(err))

	_, err = execute(t, string(doc), "align", "-", "--anchor", "2021-01-01", "--write")
	assert.True(t, ierr.IsInvalidArgument(err))
}

func TestLoadDocument_Invalid(t *testing.T) {
	_, err := execute(t, "not json", "next-payment", "-")
	assert.True(t, ierr.IsParse(err))

	_, err = execute(t, "", "next-payment", filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, ierr.IsNotFound(err))
}
