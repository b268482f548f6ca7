package module

import (
	"strings"
	"time"

	"rollcall/internal/platform/config"
	"rollcall/internal/platform/validate"
)

// Sink backends
const (
	SinkSheets     = "sheets"
	SinkPostgres   = "postgres"
	SinkClickhouse = "clickhouse"
)

// Location backends
const (
	LocationMySQL    = "mysql"
	LocationPostgres = "postgres"
)

// Options controls the monitor. Values are read from env and may be
// overridden from the command line
type Options struct {
	Interval time.Duration `env:"CORE_MONITOR_INTERVAL_SECONDS" validate:"min=1s"`
	Window   time.Duration `env:"CORE_MONITOR_ONLINE_WINDOW_SECONDS" validate:"min=1s"`

	Sink     string `env:"CORE_MONITOR_SINK" validate:"oneof=sheets postgres clickhouse"`
	Location string `env:"CORE_MONITOR_LOCATION" validate:"oneof=mysql postgres"`

	TablePrefix string `env:"CORE_MONITOR_TABLE_PREFIX" validate:"omitempty,sqlident"`
	SinkTable   string `env:"CORE_MONITOR_SINK_TABLE" validate:"required,sqlident"`
	SinkMigrate bool   `env:"CORE_MONITOR_SINK_MIGRATE"`

	FetchTimeout     time.Duration `env:"CORE_MONITOR_FETCH_TIMEOUT" validate:"min=1s"`
	LookupTimeout    time.Duration `env:"CORE_MONITOR_LOOKUP_TIMEOUT" validate:"min=100ms"`
	AppendTimeout    time.Duration `env:"CORE_MONITOR_APPEND_TIMEOUT" validate:"min=1s"`
	StatementTimeout time.Duration `env:"CORE_MONITOR_STATEMENT_TIMEOUT"`

	// TimeZone formats last-seen and snapshot times, an IANA name or Local
	TimeZone string `env:"CORE_MONITOR_TIMEZONE" validate:"required"`

	Console      bool   `env:"CORE_MONITOR_CONSOLE"`
	ConsoleStyle string `env:"CORE_MONITOR_CONSOLE_STYLE" validate:"oneof=light rounded bold ascii"`
	ConsoleLang  string `env:"CORE_MONITOR_CONSOLE_LANG" validate:"required"`

	MoodleURL   string `env:"SERVICE_MOODLE_URL" validate:"required,url"`
	MoodleToken string `env:"SERVICE_MOODLE_TOKEN" validate:"required"`

	SheetsCredentials   string `env:"SERVICE_SHEETS_CREDENTIALS" validate:"required_if=Sink sheets"`
	SheetsSpreadsheetID string `env:"SERVICE_SHEETS_SPREADSHEET_ID" validate:"required_if=Sink sheets"`
	SheetsName          string `env:"SERVICE_SHEETS_SHEET_NAME"`
}

// Overrides are command line values. Zero values keep the env setting
type Overrides struct {
	Interval  time.Duration
	Window    time.Duration
	Sink      string
	Location  string
	NoConsole bool
}

// FromConfig reads options using the CORE_MONITOR_, SERVICE_MOODLE_ and
// SERVICE_SHEETS_ prefixes
func FromConfig(cfg config.Conf) Options {
	mon := cfg.Prefix("CORE_MONITOR_")
	moodle := cfg.Prefix("SERVICE_MOODLE_")
	sheets := cfg.Prefix("SERVICE_SHEETS_")
	return Options{
		Interval:         mon.MaySeconds("INTERVAL_SECONDS", 10*time.Second),
		Window:           mon.MaySeconds("ONLINE_WINDOW_SECONDS", 300*time.Second),
		Sink:             strings.ToLower(mon.MayString("SINK", SinkSheets)),
		Location:         strings.ToLower(mon.MayString("LOCATION", LocationMySQL)),
		TablePrefix:      mon.MayString("TABLE_PREFIX", "mdl_"),
		SinkTable:        mon.MayString("SINK_TABLE", "rollcall_snapshots"),
		SinkMigrate:      mon.MayBool("SINK_MIGRATE", true),
		FetchTimeout:     mon.MayDuration("FETCH_TIMEOUT", 30*time.Second),
		LookupTimeout:    mon.MayDuration("LOOKUP_TIMEOUT", 5*time.Second),
		AppendTimeout:    mon.MayDuration("APPEND_TIMEOUT", 15*time.Second),
		StatementTimeout: mon.MayDuration("STATEMENT_TIMEOUT", 0),
		TimeZone:         mon.MayString("TIMEZONE", "Local"),
		Console:          mon.MayBool("CONSOLE", true),
		ConsoleStyle:     mon.MayEnum("CONSOLE_STYLE", "light", "light", "rounded", "bold", "ascii"),
		ConsoleLang:      mon.MayString("CONSOLE_LANG", "en"),

		MoodleURL:   moodle.MayString("URL", ""),
		MoodleToken: moodle.MayString("TOKEN", ""),

		SheetsCredentials:   sheets.MayString("CREDENTIALS", "serviceAccount.json"),
		SheetsSpreadsheetID: sheets.MayString("SPREADSHEET_ID", ""),
		SheetsName:          sheets.MayString("SHEET_NAME", "Sheet1"),
	}
}

// Apply merges non-zero overrides into o
func (o Options) Apply(ov Overrides) Options {
	if ov.Interval > 0 {
		o.Interval = ov.Interval
	}
	if ov.Window > 0 {
		o.Window = ov.Window
	}
	if ov.Sink != "" {
		o.Sink = strings.ToLower(ov.Sink)
	}
	if ov.Location != "" {
		o.Location = strings.ToLower(ov.Location)
	}
	if ov.NoConsole {
		o.Console = false
	}
	return o
}

// Validate reports the first invalid option as a Validation error naming its env key
func (o Options) Validate() error { return validate.Struct(o) }

// Backends reports which stores the options need opened
func (o Options) Backends() (pg, mysql, ch bool) {
	pg = o.Location == LocationPostgres || o.Sink == SinkPostgres
	mysql = o.Location == LocationMySQL
	ch = o.Sink == SinkClickhouse
	return pg, mysql, ch
}

// Resolve reads env options, applies overrides and validates the result
func Resolve(cfg config.Conf, ov Overrides) (Options, error) {
	o := FromConfig(cfg).Apply(ov)
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}
