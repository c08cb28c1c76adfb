package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/histree-dev/histree"
	"github.com/histree-dev/histree/display"
	"github.com/histree-dev/histree/textact"
)

// DemoConfig is the optional YAML configuration for the demo command.
type DemoConfig struct {
	// Limit bounds the history; 0 means unlimited.
	Limit int `yaml:"limit"`
	// Text is the initial buffer content.
	Text string `yaml:"text"`
	// Detailed shows entry ages in the graph pane.
	Detailed bool `yaml:"detailed"`
}

// NewDemoCommand creates the demo command.
func NewDemoCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Interactive terminal session on a text buffer",
		Long: `Edit a text buffer interactively while watching the history graph.

Keys:
  type        insert at the cursor (coalesced into runs)
  backspace   delete the previous character
  ctrl-z      undo
  ctrl-y      redo
  ctrl-s      mark the current state as saved
  ctrl-q/esc  quit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDemoConfig(configPath)
			if err != nil {
				return err
			}
			return runDemo(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (limit, text, detailed)")

	return cmd
}

func loadDemoConfig(path string) (DemoConfig, error) {
	var cfg DemoConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Limit < 0 {
		return cfg, fmt.Errorf("%s: limit must not be negative", path)
	}
	return cfg, nil
}

// demo is the interactive session state.
type demo struct {
	screen  tcell.Screen
	buf     *textact.Buffer
	history *histree.History[*textact.Buffer]
	cursor  int
	status  string
	printer display.Printer
}

func runDemo(cfg DemoConfig) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	d := &demo{
		screen:  screen,
		buf:     textact.NewBuffer(cfg.Text),
		history: histree.NewHistory[*textact.Buffer](),
		cursor:  len(cfg.Text),
		printer: display.Printer{
			Position: true,
			Current:  true,
			Saved:    true,
			Detailed: cfg.Detailed,
		},
	}
	if cfg.Limit > 0 {
		d.history.SetLimit(cfg.Limit)
	}
	d.history.Connect(func(sig histree.Signal) {
		if sig.Kind == histree.SignalBranch {
			d.status = fmt.Sprintf("switched to branch %d", sig.New)
		}
	})

	return d.loop()
}

func (d *demo) loop() error {
	for {
		d.draw()
		switch ev := d.screen.PollEvent().(type) {
		case *tcell.EventResize:
			d.screen.Sync()
		case *tcell.EventKey:
			if quit := d.handleKey(ev); quit {
				return nil
			}
		}
	}
}

func (d *demo) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlQ:
		return true
	case tcell.KeyCtrlZ:
		d.step(d.history.Undo, "undo")
	case tcell.KeyCtrlY:
		d.step(d.history.Redo, "redo")
	case tcell.KeyCtrlS:
		d.history.SetSaved(true)
		d.status = "saved"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		del := textact.DeleteBack(d.buf, d.cursor)
		if del == nil {
			return false
		}
		length := del.Length
		if err := d.history.Apply(d.buf, del); err != nil {
			d.status = err.Error()
			return false
		}
		d.cursor -= length
	case tcell.KeyRune:
		ins := &textact.Insert{Offset: d.cursor, Text: string(ev.Rune())}
		if err := d.history.Apply(d.buf, ins); err != nil {
			d.status = err.Error()
			return false
		}
		d.cursor += len(ins.Text)
	}
	return false
}

// step runs an undo or redo, treating no-ops as a status message rather
// than an error.
func (d *demo) step(fn func(*textact.Buffer) error, name string) {
	err := fn(d.buf)
	switch {
	case histree.IsNoop(err):
		d.status = "nothing to " + name
	case err != nil:
		d.status = err.Error()
	default:
		d.status = name
		d.cursor = d.buf.Len()
	}
}

func (d *demo) draw() {
	s := d.screen
	s.Clear()
	width, height := s.Size()

	drawText(s, 0, 0, tcell.StyleDefault.Bold(true), "histree demo  (ctrl-q quits)")
	drawText(s, 0, 2, tcell.StyleDefault, d.buf.String())
	s.ShowCursor(d.cursor, 2)

	saved := ""
	if d.history.IsSaved() {
		saved = "  [saved]"
	}
	at := d.history.At()
	drawText(s, 0, 4, tcell.StyleDefault.Dim(true),
		fmt.Sprintf("at %d:%d%s  %s", at.Branch, at.Current, saved, d.status))

	graph := display.HistoryString(d.history.Snapshot(), d.printer)
	for i, line := range strings.Split(graph, "\n") {
		y := 6 + i
		if y >= height {
			break
		}
		if len(line) > width {
			line = line[:width]
		}
		drawText(s, 0, y, tcell.StyleDefault, line)
	}

	s.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
