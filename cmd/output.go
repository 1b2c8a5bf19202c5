package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"

	"github.com/etnz/fins"
	"github.com/etnz/fins/renderer"
)

type format int

const (
	formatPlain format = iota
	formatMarkdown
	formatJSON
)

// printer writes Outputs in the format suited to its destination.
type printer struct {
	w      io.Writer
	format format
	opts   renderer.Options
}

// newPrinter prints to stdout: JSON with -json, markdown on a terminal and
// plain text otherwise.
func newPrinter(ctx context.Context, a *app) *printer {
	p := &printer{w: os.Stdout, format: formatPlain}
	switch {
	case *jsonOutput:
		p.format = formatJSON
	case isTerminal(os.Stdout):
		p.format = formatMarkdown
	}
	if a != nil {
		p.opts = renderer.Options{
			Log: a.cfg.LogLevel == "debug" || a.cfg.LogLevel == "info",
			Currency: func(sym fins.Symbol) string {
				ref, err := a.resolver.Resolve(ctx, sym)
				if err != nil {
					return ""
				}
				return ref.Currency
			},
			Money: func(c fins.ColumnSpec) bool {
				def, ok := a.catalog.Definition(c.Type)
				return ok && def.Currency
			},
		}
	}
	return p
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Print writes out.
func (p *printer) Print(out fins.Output) {
	switch p.format {
	case formatJSON:
		content, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			return
		}
		fmt.Fprintln(p.w, string(content))
	case formatMarkdown:
		printMarkdown(p.w, renderer.OutputMarkdown(out, p.opts))
	default:
		if s := plain(out); s != "" {
			fmt.Fprintln(p.w, s)
		}
	}
}

// plain formats out as text.
func plain(out fins.Output) string {
	switch out.Kind() {
	case fins.KindError:
		return "Error: " + out.Err().Error()
	case fins.KindBasket:
		b, _ := out.Basket()
		if b.Len() == 0 {
			return "empty basket"
		}
		return strings.TrimSuffix(b.String(), "\n")
	case fins.KindNumber:
		f, _ := out.Number()
		return renderer.Number(f)
	case fins.KindText:
		s, _ := out.Text()
		return s
	case fins.KindBoolean:
		v, _ := out.Bool()
		return fmt.Sprint(v)
	}
	return ""
}

// printMarkdown renders md for the terminal, or prints it raw if it cannot.
func printMarkdown(w io.Writer, md string) {
	if md == "" {
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	s, err := r.Render(md)
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	fmt.Fprint(w, s)
}
