// Package console renders the current activity snapshot as a terminal table.
// Output is for operators only and carries real names, so it is never persisted
package console

import (
	"io"
	"os"
	"sync"
	"time"

	"rollcall/internal/core/normalize"
	pstrings "rollcall/internal/platform/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	nameWidth = 25
	userWidth = 20
	addrWidth = 39
)

// Row is one active user as shown on screen
type Row struct {
	Identity  string
	FullName  string
	Username  string
	LastSeen  string
	Address   string
	Classroom string
}

// Options configures the Console
type Options struct {
	Out    io.Writer
	Lang   language.Tag
	Window time.Duration
	// Style is one of light, rounded, bold or ascii
	Style string
}

// Console writes one table per render
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	p      *message.Printer
	window time.Duration
	style  table.Style
}

// New builds a Console. Zero options render to stdout in English
func New(o Options) *Console {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Lang == language.Und {
		o.Lang = language.English
	}
	return &Console{
		out:    o.Out,
		p:      message.NewPrinter(o.Lang),
		window: o.Window,
		style:  styleOf(o.Style),
	}
}

func styleOf(name string) table.Style {
	switch name {
	case "rounded":
		return table.StyleRounded
	case "bold":
		return table.StyleBold
	case "ascii":
		return table.StyleDefault
	default:
		return table.StyleLight
	}
}

// Render writes the snapshot taken at `at`
func (c *Console) Render(at time.Time, rows []Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.p.Fprintf(c.out, "%s\n", c.title(at)); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := c.p.Fprintf(c.out, "No users currently online.\n")
		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(c.style)

	tw.AppendHeader(table.Row{"Hash", "Full Name", "Username", "Last Seen", "IP", "Classroom"})
	for _, r := range rows {
		tw.AppendRow(table.Row{
			r.Identity,
			pstrings.Clip(pstrings.Or(normalize.Display(r.FullName), "Unknown"), nameWidth),
			pstrings.Clip(normalize.Display(r.Username), userWidth),
			r.LastSeen,
			pstrings.Clip(pstrings.Or(normalize.Display(r.Address), "N/A"), addrWidth),
			r.Classroom,
		})
	}
	tw.AppendFooter(table.Row{"", "", "", "", "Total online", c.p.Sprintf("%d", len(rows))})

	_, err := io.WriteString(c.out, tw.Render()+"\n")
	return err
}

func (c *Console) title(at time.Time) string {
	stamp := at.Format(time.DateTime)
	if c.window <= 0 {
		return c.p.Sprintf("Online Users | %s", stamp)
	}
	mins := int(c.window / time.Minute)
	if mins >= 1 && c.window%time.Minute == 0 {
		return c.p.Sprintf("Online Users (active in last %d min) | %s", mins, stamp)
	}
	return c.p.Sprintf("Online Users (active in last %d s) | %s", int(c.window/time.Second), stamp)
}
