package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/histree-dev/histree"
	"github.com/histree-dev/histree/display"
	"github.com/histree-dev/histree/histjson"
	"github.com/histree-dev/histree/textact"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	Detailed bool
	Load     string
	Dump     string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand() *cobra.Command {
	opts := &ReplayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <script.json>",
		Short: "Run a JSON edit script and print the history graph",
		Long: `Run a JSON edit script against a text buffer and print the resulting
history graph.

The script is a JSON array of operations:

  [
    {"op": "apply", "at": 0, "text": "hello"},
    {"op": "delete", "at": 0, "len": 5},
    {"op": "replace", "at": 0, "len": 5, "text": "world"},
    {"op": "undo"},
    {"op": "redo"},
    {"op": "goto", "branch": 1, "index": 2},
    {"op": "save"}
  ]`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show entry ages in the graph")
	cmd.Flags().StringVar(&opts.Load, "load", "", "start from a history dumped with --dump")
	cmd.Flags().StringVar(&opts.Dump, "dump", "", "write the final history as JSON to this file")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions, scriptPath string) error {
	registry := histjson.NewRegistry[*textact.Buffer]()
	textact.Register(registry)

	buf := textact.NewBuffer("")
	h := histree.NewHistory[*textact.Buffer]()
	if opts.Load != "" {
		data, err := os.ReadFile(opts.Load)
		if err != nil {
			return err
		}
		if h, err = registry.UnmarshalHistory(data); err != nil {
			return fmt.Errorf("load %s: %w", opts.Load, err)
		}
		if err := rebuild(h, buf); err != nil {
			return fmt.Errorf("load %s: %w", opts.Load, err)
		}
	}

	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}
	parsed := gjson.ParseBytes(script)
	if !parsed.IsArray() {
		return fmt.Errorf("%s: script must be a JSON array", scriptPath)
	}
	for i, step := range parsed.Array() {
		if err := runStep(h, buf, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Get("op").String(), err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "buffer: %q\n\n", buf.String())
	printer := display.Printer{Position: true, Current: true, Saved: true, Detailed: opts.Detailed}
	if err := display.History(cmd.OutOrStdout(), h.Snapshot(), printer); err != nil {
		return err
	}

	if opts.Dump != "" {
		data, err := registry.MarshalHistory(h.Snapshot())
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.Dump, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func runStep(h *histree.History[*textact.Buffer], buf *textact.Buffer, step gjson.Result) error {
	switch op := step.Get("op").String(); op {
	case "apply":
		return h.Apply(buf, &textact.Insert{
			Offset: int(step.Get("at").Int()),
			Text:   step.Get("text").String(),
		})
	case "delete":
		return h.Apply(buf, &textact.Delete{
			Offset: int(step.Get("at").Int()),
			Length: int(step.Get("len").Int()),
		})
	case "replace":
		return h.Apply(buf, &textact.Replace{
			Offset: int(step.Get("at").Int()),
			Length: int(step.Get("len").Int()),
			Text:   step.Get("text").String(),
		})
	case "undo":
		return h.Undo(buf)
	case "redo":
		return h.Redo(buf)
	case "goto":
		return h.GoTo(buf, int(step.Get("branch").Int()), int(step.Get("index").Int()))
	case "save":
		h.SetSaved(true)
		return nil
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

// rebuild replays a loaded history's applied entries into an empty buffer,
// since the dump stores edits, not content.
func rebuild(h *histree.History[*textact.Buffer], buf *textact.Buffer) error {
	snap := h.Snapshot()
	for i := 0; i < snap.Record.Current; i++ {
		if err := snap.Record.Entries[i].Action.Apply(buf); err != nil {
			return fmt.Errorf("replay entry %d: %w", i, err)
		}
	}
	return nil
}
