package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"formcfg/internal/bootstrap/config"
	"formcfg/internal/bootstrap/logging"
	"formcfg/internal/errs"
	"formcfg/internal/ports"
)

const maxSheetTitleLen = 100

var header = []string{"id", "category", "subcategory", "category_metadata", "subcategory_metadata", "updated_at"}

// Mirror upserts one row per form into a tab named after the form title.
type Mirror struct {
	client        sheetClient
	spreadsheetID string
}

var _ ports.SheetMirror = (*Mirror)(nil)

func NewMirror(ctx context.Context, cfg config.SheetsConfig) (*Mirror, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	client, err := newGoogleClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return &Mirror{client: client, spreadsheetID: cfg.SpreadsheetID}, nil
}

func newMirrorWithClient(client sheetClient, spreadsheetID string) *Mirror {
	return &Mirror{client: client, spreadsheetID: spreadsheetID}
}

func (m *Mirror) Sync(ctx context.Context, form ports.Form) (ok bool) {
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "sheets.mirror"),
		slog.Uint64("form_id", form.FormID),
	)

	defer func() {
		if r := recover(); r != nil {
			logging.Error(logCtx, "sheets sync panicked", slog.Any("panic", r))
			ok = false
		}
	}()

	if err := m.sync(ctx, form); err != nil {
		logging.Warn(logCtx, "sheets sync failed", slog.Any("err", errs.Loggable(err)))
		return false
	}
	logging.Info(logCtx, "sheets sync done")
	return true
}

func (m *Mirror) sync(ctx context.Context, form ports.Form) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	title := SheetTitle(form)
	if err := m.ensureSheet(ctx, title); err != nil {
		return err
	}

	rows, err := m.client.GetValues(ctx, m.spreadsheetID, a1(title, "A:F"))
	if err != nil {
		return err
	}

	if len(rows) == 0 || !sameRow(rows[0], header) {
		if err := m.client.UpdateRow(ctx, m.spreadsheetID, a1(title, "A1:F1"), toCells(header)); err != nil {
			return errs.Wrap(err, "write header")
		}
		if len(rows) == 0 {
			rows = [][]string{header}
		}
	}

	row, err := formRow(form)
	if err != nil {
		return err
	}

	id := strconv.FormatUint(form.FormID, 10)
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > 0 && strings.TrimSpace(rows[i][0]) == id {
			rowNum := i + 1
			return m.client.UpdateRow(ctx, m.spreadsheetID, a1(title, fmt.Sprintf("A%d:F%d", rowNum, rowNum)), row)
		}
	}
	return m.client.AppendRow(ctx, m.spreadsheetID, a1(title, "A:F"), row)
}

func (m *Mirror) ensureSheet(ctx context.Context, title string) error {
	titles, err := m.client.SheetTitles(ctx, m.spreadsheetID)
	if err != nil {
		return err
	}
	for _, existing := range titles {
		if existing == title {
			return nil
		}
	}
	return m.client.AddSheet(ctx, m.spreadsheetID, title)
}

// SheetTitle is the tab name used for a form.
func SheetTitle(form ports.Form) string {
	title := strings.TrimSpace(form.Title)
	if title == "" {
		return fmt.Sprintf("form-%d", form.FormID)
	}
	if utf8.RuneCountInString(title) > maxSheetTitleLen {
		title = string([]rune(title)[:maxSheetTitleLen])
	}
	return title
}

func formRow(form ports.Form) ([]any, error) {
	categoryMeta, err := json.Marshal(nonNil(form.CategoryMetadata))
	if err != nil {
		return nil, errs.Wrap(err, "encode category_metadata")
	}
	subcategoryMeta, err := json.Marshal(nonNil(form.SubcategoryMetadata))
	if err != nil {
		return nil, errs.Wrap(err, "encode subcategory_metadata")
	}

	subcategory := ""
	if form.Subcategory != nil {
		subcategory = *form.Subcategory
	}

	return []any{
		strconv.FormatUint(form.FormID, 10),
		form.Category,
		subcategory,
		string(categoryMeta),
		string(subcategoryMeta),
		form.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func a1(title string, cells string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + cells
}

func sameRow(got []string, want []string) bool {
	if len(got) < len(want) {
		return false
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
