package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/LevdanskyVitaliy/todo-sync/internal/reconcile"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
	"github.com/LevdanskyVitaliy/todo-sync/internal/view"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	openStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	clearStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	idStyle     = lipgloss.NewStyle().Faint(true)
	doneStyle   = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	descStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// renderCount prints the open count, red while work remains and green at zero
func renderCount(w io.Writer, n int) {
	style := clearStyle
	if n > 0 {
		style = openStyle
	}
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Open tasks:"), style.Render(strconv.Itoa(n)))
}

func renderList(w io.Writer, v reconcile.Snapshot) {
	renderCount(w, v.OpenCount)

	if view.Active(v.Query) {
		fmt.Fprintf(w, "Search %q: %d of %d tasks\n", v.Query, len(v.Tasks), len(v.All))
	} else if v.Mode == reconcile.ModeOpenOnly {
		fmt.Fprintln(w, "Showing open tasks only")
	}

	if len(v.Tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for _, t := range v.Tasks {
		renderTask(w, t)
	}
}

func renderTask(w io.Writer, t task.Task) {
	mark := "[ ]"
	name := t.Name
	if t.Done {
		mark = "[x]"
		name = doneStyle.Render(name)
	}

	line := fmt.Sprintf("%s %s  %s", mark, idStyle.Render(shortID(t.ID)), name)
	if t.Description != "" {
		line += "  " + descStyle.Render(t.Description)
	}
	fmt.Fprintln(w, line)
}
