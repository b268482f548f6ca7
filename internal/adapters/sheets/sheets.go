// Package sheets appends snapshot rows to a Google Sheet and reads back the
// identities already written
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/logger"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Scope is the OAuth scope needed to read and append values
const Scope = "https://www.googleapis.com/auth/spreadsheets"

// Header is the first row of the sheet
var Header = []string{"Hashed ID", "Last Seen", "Classroom", "Snapshot Time"}

// Options configures the Sheet
type Options struct {
	// CredentialsFile is a service account JSON key
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string

	// ClientOptions replace credential loading when set, mostly for tests
	ClientOptions []option.ClientOption
}

// Sheet is one tab of a spreadsheet used as an append-only table
type Sheet struct {
	values *gsheets.SpreadsheetsValuesService
	id     string
	name   string
	log    logger.Logger
}

// Open builds the Sheets client. It does not touch the network
func Open(ctx context.Context, o Options) (*Sheet, error) {
	if strings.TrimSpace(o.SpreadsheetID) == "" {
		return nil, perr.WithField(perr.InvalidArgf("spreadsheet id is empty"), "SERVICE_SHEETS_SPREADSHEET_ID")
	}
	if o.SheetName == "" {
		o.SheetName = "Sheet1"
	}
	opts := o.ClientOptions
	if len(opts) == 0 {
		ts, err := tokenSource(ctx, o.CredentialsFile)
		if err != nil {
			return nil, err
		}
		opts = []option.ClientOption{ts}
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSinkUnavailable, "sheets client init failed")
	}
	return &Sheet{
		values: gsheets.NewSpreadsheetsValuesService(svc),
		id:     o.SpreadsheetID,
		name:   o.SheetName,
		log:    *logger.Named("sheets"),
	}, nil
}

func tokenSource(ctx context.Context, path string) (option.ClientOption, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read service account %q", path), "SERVICE_SHEETS_CREDENTIALS")
	}
	cfg, err := google.JWTConfigFromJSON(raw, Scope)
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse service account %q", path), "SERVICE_SHEETS_CREDENTIALS")
	}
	return option.WithTokenSource(cfg.TokenSource(ctx)), nil
}

// Target returns "<spreadsheet>/<sheet>" for logs
func (s *Sheet) Target() string { return s.id + "/" + s.name }

// a1 builds an A1 range on this tab, quoting the tab name
func (s *Sheet) a1(cols string) string {
	return "'" + strings.ReplaceAll(s.name, "'", "''") + "'!" + cols
}

// EnsureHeader writes Header into row 1 when cell A1 is empty. It reports
// whether the header was written
func (s *Sheet) EnsureHeader(ctx context.Context) (bool, error) {
	vr, err := s.values.Get(s.id, s.a1("A1:D1")).Context(ctx).Do()
	if err != nil {
		return false, s.wrap(err, "read header")
	}
	if len(vr.Values) > 0 && len(vr.Values[0]) > 0 && cell(vr.Values[0][0]) != "" {
		return false, nil
	}
	body := &gsheets.ValueRange{Values: [][]any{toAny(Header)}}
	if _, err := s.values.Update(s.id, s.a1("A1:D1"), body).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return false, s.wrap(err, "write header")
	}
	s.log.Info().Str("sheet", s.Target()).Msg("sheet header written")
	return true, nil
}

// Identities returns the non-empty values of column A, skipping the header row
func (s *Sheet) Identities(ctx context.Context) ([]string, error) {
	vr, err := s.values.Get(s.id, s.a1("A:A")).MajorDimension("ROWS").Context(ctx).Do()
	if err != nil {
		return nil, s.wrap(err, "read identities")
	}
	if len(vr.Values) <= 1 {
		return nil, nil
	}
	out := make([]string, 0, len(vr.Values)-1)
	for _, row := range vr.Values[1:] {
		if len(row) == 0 {
			continue
		}
		if v := strings.TrimSpace(cell(row[0])); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// Append adds rows after the last row of the table
func (s *Sheet) Append(ctx context.Context, rows ...[]string) error {
	if len(rows) == 0 {
		return nil
	}
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = toAny(r)
	}
	_, err := s.values.Append(s.id, s.a1("A:D"), &gsheets.ValueRange{Values: vals}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return s.wrap(err, "append")
	}
	return nil
}

func (s *Sheet) wrap(err error, op string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			err = perr.Wrapf(err, perr.ErrorCodeUnauthorized, "sheets denied access (%d)", gerr.Code)
		case http.StatusNotFound:
			err = perr.Wrapf(err, perr.ErrorCodeNotFound, "sheet %s not found", s.Target())
		}
	}
	return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeSinkUnavailable, "sheets %s failed", op), "sheets."+op)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
