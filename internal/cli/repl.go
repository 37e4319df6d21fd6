package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/presentation/graph"
	"github.com/aretw0/rewind/internal/presentation/tui"
	"github.com/aretw0/rewind/internal/sanitize"
)

// ErrUnknownCommand is returned by Exec for input it cannot parse.
var ErrUnknownCommand = errors.New("unknown command")

const helpText = `# Commands

| Command | Effect |
|---|---|
| ` + "`<event>`" + ` or ` + "`trigger <event>`" + ` | fire an event from the active state |
| ` + "`goto <state>`" + ` | jump to a state, dropping the redo branch |
| ` + "`undo`" + ` / ` + "`redo`" + ` | move through history |
| ` + "`reset`" + ` | return to the initial state, keeping history |
| ` + "`clear`" + ` | return to the initial state and empty history |
| ` + "`states [event]`" + ` | list states, optionally those handling an event |
| ` + "`history`" + ` | show the visited states |
| ` + "`graph`" + ` | print the Mermaid diagram |
| ` + "`quit`" + ` | leave |

Command names win over events with the same name. Fire those with ` + "`trigger <event>`" + `.
`

// REPL drives a machine from line-oriented input.
type REPL struct {
	Machine *rewind.Machine
	In      io.Reader
	Out     io.Writer

	// Render formats markdown output. Nil prints it as is.
	Render func(string) (string, error)

	// Prompt formats the prompt for the active state. Nil disables the prompt.
	Prompt func(state string) string

	// JSON prints one snapshot object per command instead of text.
	JSON bool
}

// Run reads commands until quit, end of input or ctx cancellation.
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	done := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(r.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			done <- err
			return
		}
		done <- io.EOF
	}()

	for {
		if r.Prompt != nil && !r.JSON {
			fmt.Fprint(r.Out, r.Prompt(r.Machine.State()))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return handleExecutionError(err)
		case line := <-lines:
			quit, err := r.Exec(line)
			if err != nil {
				r.reportError(err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Exec runs a single command. quit reports whether the session should end.
// A bare word that is not a command triggers the event of that name, so events
// named like a command (undo, reset, t, ...) need the explicit trigger form.
func (r *REPL) Exec(line string) (quit bool, err error) {
	line, err = sanitize.Input(line)
	if err != nil {
		return false, err
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	m := r.Machine

	switch cmd {
	case "quit", "exit", "q":
		return true, nil

	case "help", "?":
		r.markdown(helpText)
		return false, nil

	case "trigger", "t":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: trigger <event>")
		}
		if _, err := m.Trigger(args[0]); err != nil {
			return false, err
		}
		r.moved(cmd, true)

	case "goto", "change":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: goto <state>")
		}
		if _, err := m.ChangeState(args[0]); err != nil {
			return false, err
		}
		r.moved(cmd, true)

	case "undo":
		r.moved(cmd, m.Undo())

	case "redo":
		r.moved(cmd, m.Redo())

	case "reset":
		m.Reset()
		r.moved(cmd, true)

	case "clear":
		m.ClearHistory()
		r.moved(cmd, true)

	case "states":
		event := ""
		if len(args) > 0 {
			event = args[0]
		}
		states := m.StatesOn(event)
		if r.JSON {
			r.writeJSON(map[string]any{"states": states})
			return false, nil
		}
		fmt.Fprintln(r.Out, strings.Join(states, " "))

	case "history":
		if r.JSON {
			r.writeJSON(m.Snapshot())
			return false, nil
		}
		r.markdown(tui.DescribeHistory(m.Snapshot()))

	case "graph":
		overlay := graph.OverlayFrom(m.Snapshot())
		fmt.Fprint(r.Out, graph.GenerateMermaid(m.Config(), overlay))

	default:
		if len(args) > 0 {
			return false, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
		}
		// A bare word is an event.
		if _, err := m.Trigger(fields[0]); err != nil {
			return false, err
		}
		r.moved("trigger", true)
	}

	return false, nil
}

func (r *REPL) moved(op string, ok bool) {
	snap := r.Machine.Snapshot()
	if r.JSON {
		r.writeJSON(struct {
			Op    string `json:"op"`
			Moved bool   `json:"moved"`
			State any    `json:"state"`
		}{op, ok, snap})
		return
	}
	if !ok {
		fmt.Fprintf(r.Out, "nothing to %s\n", op)
		return
	}
	if len(snap.History) == 0 {
		fmt.Fprintf(r.Out, "→ %s (history cleared)\n", snap.Current)
		return
	}
	fmt.Fprintf(r.Out, "→ %s (%d/%d)\n", snap.Current, snap.Position+1, len(snap.History))
}

func (r *REPL) markdown(md string) {
	out := md
	if r.Render != nil {
		if rendered, err := r.Render(md); err == nil {
			out = rendered
		}
	}
	fmt.Fprint(r.Out, out)
}

func (r *REPL) reportError(err error) {
	if r.JSON {
		r.writeJSON(map[string]string{"error": err.Error()})
		return
	}
	fmt.Fprintln(r.Out, tui.Error(err.Error()))
}

func (r *REPL) writeJSON(v any) {
	_ = json.NewEncoder(r.Out).Encode(v)
}
