package views

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/brewbeat/baristabot/internal/catalog"
	"github.com/brewbeat/baristabot/internal/messaging"
	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/store"
)

// ExportRequest selects the interval and optional drink filter for a
// CSV export. An explicit From/To date pair takes precedence over the
// period token; an empty Period defaults to the current month.
type ExportRequest struct {
	Period string
	From   string // YYYY-MM-DD
	To     string // YYYY-MM-DD
	Drink  string
}

// ExportView serializes order ranges to CSV attachments.
type ExportView struct {
	st  store.Store
	msg messaging.Service
	now func() time.Time
}

// NewExportView creates an ExportView.
func NewExportView(st store.Store, msg messaging.Service) *ExportView {
	return &ExportView{st: st, msg: msg, now: time.Now}
}

// Export resolves the request to a half-open interval, queries the
// matching orders chronologically, and sends them as a CSV document. An
// empty result suppresses the file and reports "no records" instead.
// Malformed dates are reported to the user as guidance, not as an error.
func (v *ExportView) Export(ctx context.Context, userID, chatID int64, req ExportRequest) error {
	var since, until int64
	var filename, periodLabel string

	if req.From != "" && req.To != "" {
		var err error
		since, until, err = RangeBounds(req.From, req.To)
		if err != nil {
			slog.Debug("Export rejected date range", "error", err, "user_id", userID)
			_, sendErr := v.msg.SendMessage(ctx, chatID, "Dates must look like YYYY-MM-DD, e.g. /export 2026-01-01 2026-01-31", nil)
			return sendErr
		}
		filename = fmt.Sprintf("orders_%s_%s.csv", req.From, req.To)
		periodLabel = req.From + "-" + req.To
	} else {
		period := req.Period
		if period == "" {
			period = "month"
		}
		since, until = PeriodBounds(period, v.now())
		filename = fmt.Sprintf("orders_%s.csv", period)
		periodLabel = period
	}

	rows, err := v.st.OrdersBetween(ctx, userID, since, until, req.Drink)
	if err != nil {
		return fmt.Errorf("failed to query export range: %w", err)
	}
	if len(rows) == 0 {
		_, err := v.msg.SendMessage(ctx, chatID, "No records for that period.", nil)
		return err
	}

	if req.Drink != "" && req.Drink != "all" {
		filename = filename[:len(filename)-len(".csv")] + "_" + req.Drink + ".csv"
	}

	data, err := OrdersToCSV(rows)
	if err != nil {
		return fmt.Errorf("failed to serialize export: %w", err)
	}

	caption := fmt.Sprintf("Export: %s\nFilter: %s · %s\nRows: %d",
		filename, periodLabel, catalog.DrinkLabel(req.Drink), len(rows))
	if err := v.msg.SendDocument(ctx, chatID, filename, data, caption); err != nil {
		return fmt.Errorf("failed to send export document: %w", err)
	}
	slog.Info("Export delivered", "user_id", userID, "filename", filename, "rows", len(rows))
	return nil
}

// OrdersToCSV renders orders as CSV with the fixed column set
// id, created_at, drink, size, milk; created_at is ISO-8601 UTC.
func OrdersToCSV(rows []models.Order) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "created_at", "drink", "size", "milk"}); err != nil {
		return nil, err
	}
	for _, o := range rows {
		record := []string{
			strconv.FormatInt(o.ID, 10),
			FormatTime(o.CreatedAt),
			o.Drink,
			o.Size,
			o.Milk,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
