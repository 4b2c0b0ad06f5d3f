// Package console drives one browser session from a terminal. Each command
// maps to a coordinator operation; the results are printed as text.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	appLog "notify/internal/log"
	"notify/internal/model"
	"notify/internal/session"
	"notify/internal/view"
)

const prompt = "notify> "

var errQuit = errors.New("quit")

// Console is a line-oriented front end over a single coordinator.
type Console struct {
	coord *session.Coordinator
	out   io.Writer
	loc   *time.Location
}

// New binds a console to coord. Scroll requests are printed to out.
func New(coord *session.Coordinator, out io.Writer, loc *time.Location) *Console {
	if loc == nil {
		loc = time.UTC
	}
	c := &Console{coord: coord, out: out, loc: loc}
	coord.OnScroll(func(req session.ScrollRequest) {
		fmt.Fprintf(out, "-- scrolled to #%s (offset %dpx) --\n", req.Target, req.HeaderOffset)
	})
	return c
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("search"),
		readline.PcItem("clear-search"),
		readline.PcItem("list"),
		readline.PcItem("show"),
		readline.PcItem("close"),
		readline.PcItem("fav"),
		readline.PcItem("favs"),
		readline.PcItem("menu"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Run reads commands from stdin until EOF or "exit".
func (c *Console) Run(historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          c.out,
	})
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	defer rl.Close()

	c.list()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := c.Execute(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

// Execute runs a single command line.
func (c *Console) Execute(line string) error {
	// Only the command word is split off; search text is passed on as typed.
	cmd, arg, _ := strings.Cut(strings.TrimLeft(line, " \t"), " ")
	cmd = strings.TrimSpace(cmd)
	id := strings.TrimSpace(arg)

	switch cmd {
	case "":
		return nil
	case "search":
		c.coord.SetSearchTerm(arg)
		c.list()
	case "clear-search":
		c.coord.SetSearchTerm("")
		c.list()
	case "list":
		c.list()
	case "show":
		if id == "" {
			return errors.New("usage: show <id>")
		}
		c.coord.SelectEvent(model.EventID(id))
		c.show()
	case "close":
		c.coord.ClearSelection()
		fmt.Fprintln(c.out, "details closed")
	case "fav":
		if id == "" {
			return errors.New("usage: fav <id>")
		}
		fid := model.EventID(id)
		c.coord.ToggleFavorite(fid)
		if c.coord.IsFavorite(fid) {
			fmt.Fprintf(c.out, "%s added to favorites\n", fid)
		} else {
			fmt.Fprintf(c.out, "%s removed from favorites\n", fid)
		}
	case "favs":
		c.favorites()
	case "menu":
		c.coord.ToggleMenu()
		if c.coord.MenuOpen() {
			fmt.Fprintln(c.out, "menu open")
		} else {
			fmt.Fprintln(c.out, "menu closed")
		}
	case "help":
		c.help()
	case "exit", "quit":
		return errQuit
	default:
		appLog.Debug("console: unknown command", "cmd", cmd)
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (c *Console) list() {
	events := c.coord.FilteredEvents()
	if term := c.coord.SearchTerm(); term != "" {
		fmt.Fprintf(c.out, "Upcoming Events matching %q\n", term)
	} else {
		fmt.Fprintln(c.out, "Upcoming Events")
	}
	if len(events) == 0 {
		fmt.Fprintln(c.out, "  No events found. Try adjusting your filters.")
		return
	}
	for _, ev := range events {
		mark := " "
		if c.coord.IsFavorite(ev.ID) {
			mark = "*"
		}
		fmt.Fprintf(c.out, "%s [%s] %s | %s | %s | %s\n",
			mark, ev.ID, ev.Name, view.FormatDate(ev.Date, c.loc), ev.Location, priceLabel(ev))
	}
}

func (c *Console) show() {
	ev, ok := c.coord.Selected()
	if !ok {
		fmt.Fprintln(c.out, "no such event")
		return
	}
	fmt.Fprintf(c.out, "%s (%s)\n", ev.Name, ev.Category)
	fmt.Fprintf(c.out, "  When:  %s\n", view.FormatDate(ev.Date, c.loc))
	fmt.Fprintf(c.out, "  Where: %s\n", ev.Location)
	fmt.Fprintf(c.out, "  Price: %s\n", priceLabel(ev))
	if ev.Description != "" {
		fmt.Fprintf(c.out, "  %s\n", ev.Description)
	}
}

func (c *Console) favorites() {
	ids := c.coord.Favorites()
	if len(ids) == 0 {
		fmt.Fprintln(c.out, "no favorites")
		return
	}
	for _, id := range ids {
		if ev, ok := c.coord.Catalog().Lookup(id); ok {
			fmt.Fprintf(c.out, "* [%s] %s\n", id, ev.Name)
		} else {
			fmt.Fprintf(c.out, "* [%s]\n", id)
		}
	}
}

func (c *Console) help() {
	fmt.Fprint(c.out, `commands:
  search <text>   filter events by name, location or category
  clear-search    show all events
  list            print the current results
  show <id>       open event details
  close           close event details
  fav <id>        toggle an event as favorite
  favs            list favorites
  menu            toggle the navigation menu
  exit            leave the console
`)
}

func priceLabel(ev model.Event) string {
	if ev.IsFree() {
		return "Free"
	}
	return view.FormatPrice(ev.Price)
}
