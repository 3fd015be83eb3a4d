package export

import (
	"context"
	"fmt"
	"time"

	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/walletview/internal/domain"
)

const historySheet = "HISTORY"

// historyPairs are the rate keys tracked in the HISTORY sheet, one column each.
// Column A (Time) is prepended separately in buildHistoryRows.
var historyPairs = []string{
	"BTC_iso:USD",
	"ETH_iso:USD",
	"BCH_iso:USD",
	"LTC_iso:USD",
	"XLM_iso:USD",
	"XRP_iso:USD",
	"EOS_iso:USD",
	"XTZ_iso:USD",
	"USDT_iso:USD",
	"iso:USD_iso:EUR",
}

// buildHistoryRows builds the header row and a single data row for the HISTORY sheet.
// Missing pairs are left blank.
func buildHistoryRows(rates domain.ExchangeRates, at time.Time) (header []any, data []any) {
	header = make([]any, 1+len(historyPairs))
	header[0] = "Time"
	data = make([]any, 1+len(historyPairs))
	data[0] = at.UTC().Format("2006-01-02 15:04")

	for i, key := range historyPairs {
		header[i+1] = key
		if rate, ok := rates[key]; ok && rate > 0 {
			data[i+1] = rate
		} else {
			data[i+1] = nil
		}
	}

	return header, data
}

// AppendHistory ensures the HISTORY sheet exists, writes the header row if the
// sheet is new or empty, then appends one data row for the current run.
func (w *SheetsWriter) AppendHistory(ctx context.Context, rates domain.ExchangeRates, at time.Time) error {
	meta, err := w.ensureSheets(ctx, historySheet)
	if err != nil {
		return fmt.Errorf("ensuring %s sheet: %w", historySheet, err)
	}

	header, dataRow := buildHistoryRows(rates, at)

	existing, err := w.svc.Spreadsheets.Values.Get(
		w.spreadsheetID, historySheet+"!A1:A1",
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading %s header: %w", historySheet, err)
	}

	if len(existing.Values) < 1 {
		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID,
			historySheet+"!A1",
			&sheets.ValueRange{Values: [][]any{header}},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("writing %s header: %w", historySheet, err)
		}
		if err := w.applyHistoryFormatting(ctx, meta[historySheet]); err != nil {
			return fmt.Errorf("formatting %s sheet: %w", historySheet, err)
		}
	}

	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		historySheet+"!A:A",
		&sheets.ValueRange{Values: [][]any{dataRow}},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending %s row: %w", historySheet, err)
	}

	return nil
}

// applyHistoryFormatting makes the header bold on a light-green background,
// freezes it together with the time column and drops any banding.
func (w *SheetsWriter) applyHistoryFormatting(ctx context.Context, hist sheetMeta) error {
	lightGreen := &sheets.Color{Red: 0.851, Green: 0.918, Blue: 0.827}
	totalCols := int64(1 + len(historyPairs))

	reqs := []*sheets.Request{
		cellFormatReq(hist.id, 0, 1, 0, totalCols,
			&sheets.CellFormat{
				BackgroundColor:     lightGreen,
				TextFormat:          &sheets.TextFormat{Bold: true, FontSize: 9},
				HorizontalAlignment: "CENTER",
			},
			"userEnteredFormat(backgroundColor,textFormat,horizontalAlignment)"),
		cellFormatReq(hist.id, 1, 100000, 1, totalCols,
			&sheets.CellFormat{NumberFormat: &sheets.NumberFormat{Type: "NUMBER", Pattern: "#,##0.00####"}},
			"userEnteredFormat.numberFormat"),
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: hist.id,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount:    1,
						FrozenColumnCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount,gridProperties.frozenColumnCount",
			},
		},
	}

	for _, bid := range hist.bandingIDs {
		reqs = append(reqs, &sheets.Request{
			DeleteBanding: &sheets.DeleteBandingRequest{BandedRangeId: bid},
		})
	}

	_, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: reqs},
	).Context(ctx).Do()
	return err
}
