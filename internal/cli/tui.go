package cli

import (
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/noderig/pkg/manager"
)

var (
	confirmChoiceStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	confirmDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ConfirmModel - yes/no prompt
// =============================================================================

// ConfirmModel is the bubbletea model for a yes/no question.
type ConfirmModel struct {
	Prompt   string
	Choice   bool
	Answered bool
}

// NewConfirmModel starts with the default answer selected.
func NewConfirmModel(prompt string, def bool) ConfirmModel {
	return ConfirmModel{Prompt: prompt, Choice: def}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.Choice, m.Answered = true, true
		return m, tea.Quit
	case "n", "N":
		m.Choice, m.Answered = false, true
		return m, tea.Quit
	case "left", "right", "h", "l", "tab":
		m.Choice = !m.Choice
	case "enter":
		m.Answered = true
		return m, tea.Quit
	case "ctrl+c", "esc", "q":
		m.Choice, m.Answered = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.Answered {
		return ""
	}
	var yes, no string
	if m.Choice {
		yes = confirmChoiceStyle.Render("[yes]")
		no = confirmDimStyle.Render(" no ")
	} else {
		yes = confirmDimStyle.Render(" yes ")
		no = confirmChoiceStyle.Render("[no]")
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render("?") + " " + m.Prompt + "  " + yes + " " + no + "\n")
	b.WriteString(confirmDimStyle.Render("y/n answer  ←/→ toggle  ⏎ confirm") + "\n")
	return b.String()
}

// =============================================================================
// Confirmer
// =============================================================================

// confirmer returns how commands ask the user. --yes answers yes, a stdin
// that is not a terminal gets the default answer, anything else runs the
// interactive prompt.
func (c *CLI) confirmer() manager.Confirmer {
	return manager.ConfirmFunc(func(prompt string, def bool) bool {
		if c.assumeYes {
			return true
		}
		if !isTerminal(c.stdin) {
			c.Logger.Debug("no terminal, using default answer", "prompt", prompt, "answer", def)
			return def
		}
		return runConfirm(c.stdin, prompt, def)
	})
}

func runConfirm(in io.Reader, prompt string, def bool) bool {
	p := tea.NewProgram(NewConfirmModel(prompt, def), tea.WithInput(in), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return def
	}
	m, ok := final.(ConfirmModel)
	return ok && m.Choice
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
