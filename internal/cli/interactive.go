package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"repocast/internal/tts"
)

// menuItem represents a single configurable option in the TUI.
type menuItem struct {
	label    string
	value    string
	options  []menuOption
	required bool
	editing  bool
	cursor   int // cursor within options when editing
}

type menuOption struct {
	label string
	value string
}

// menuState tracks which phase the TUI is in.
type menuState int

const (
	stateMenu menuState = iota
	stateEditing
)

// tuiModel is the Bubble Tea model for the interactive menu.
type tuiModel struct {
	items     []menuItem
	cursor    int
	state     menuState
	err       error
	confirmed bool
	cancelled bool
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	menuLabelStyle = lipgloss.NewStyle().
			Width(16).
			Align(lipgloss.Right).
			MarginRight(2)

	menuValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	menuValueDimStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#555555")).
				Italic(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	requiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	optionStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	selectedOptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575")).
				Bold(true).
				PaddingLeft(2)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 3)

	buttonDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Padding(0, 3)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	headerBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)
)

const (
	idxRepo = iota
	idxTone
	idxDuration
	idxProvider
	idxVoiceHost
	idxVoiceExpert
)

func voiceOptionsForProvider(provider string) []menuOption {
	if provider == "" {
		provider = "gemini"
	}
	voices, err := tts.AvailableVoices(provider)
	if err != nil {
		return nil
	}
	opts := make([]menuOption, 0, len(voices)+1)
	opts = append(opts, menuOption{label: "(default)", value: ""})
	for _, v := range voices {
		label := fmt.Sprintf("%s - %s (%s)", v.Name, v.Description, v.Gender)
		opts = append(opts, menuOption{label: label, value: v.ID})
	}
	return opts
}

func buildMenuItems() []menuItem {
	provider := flagTTS
	if provider == "" {
		provider = "gemini"
	}

	items := []menuItem{
		{label: "Repo URL", value: flagRepoURL, required: true},
		{
			label: "Tone",
			value: flagTone,
			options: []menuOption{
				{label: "Casual - light and engaging (default)", value: "casual"},
				{label: "Technical - precise, domain-specific", value: "technical"},
				{label: "Educational - accessible, builds understanding", value: "educational"},
			},
		},
		{label: "Duration (min)", value: strconv.Itoa(flagDurationMin)},
		{
			label: "TTS Provider",
			value: provider,
			options: []menuOption{
				{label: "Gemini (default)", value: "gemini"},
				{label: "ElevenLabs", value: "elevenlabs"},
				{label: "Google Cloud TTS", value: "google"},
				{label: "AWS Polly", value: "polly"},
			},
		},
		{label: "Host Voice", value: flagVoiceHost, options: voiceOptionsForProvider(provider)},
		{label: "Expert Voice", value: flagVoiceExpert, options: voiceOptionsForProvider(provider)},
	}

	items = append(items, menuItem{label: ">>> Generate <<<"})

	for i := range items {
		for j, opt := range items[i].options {
			if opt.value == items[i].value {
				items[i].cursor = j
				break
			}
		}
	}
	return items
}

func initialTUIModel() tuiModel {
	return tuiModel{
		items:  buildMenuItems(),
		cursor: idxRepo,
		state:  stateMenu,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) generateIdx() int { return len(m.items) - 1 }

func (m tuiModel) isTextInput(idx int) bool {
	return idx == idxRepo || idx == idxDuration
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch m.state {
	case stateMenu:
		return m.updateMenu(keyMsg)
	case stateEditing:
		return m.updateEditing(keyMsg)
	}
	return m, nil
}

func (m tuiModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.cancelled = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case "enter", " ":
		if m.cursor == m.generateIdx() {
			if m.items[idxRepo].value == "" {
				m.err = fmt.Errorf("Repo URL is required")
				return m, nil
			}
			m.confirmed = true
			return m, tea.Quit
		}
		m.state = stateEditing
		m.items[m.cursor].editing = true
		m.err = nil
	}
	return m, nil
}

func (m tuiModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	idx := m.cursor
	item := &m.items[idx]

	if m.isTextInput(idx) {
		switch msg.String() {
		case "enter":
			item.editing = false
			m.state = stateMenu
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
			return m, nil
		case "esc":
			item.editing = false
			m.state = stateMenu
			return m, nil
		case "backspace":
			if len(item.value) > 0 {
				item.value = item.value[:len(item.value)-1]
			}
			return m, nil
		case "ctrl+u":
			item.value = ""
			return m, nil
		default:
			if msg.Type == tea.KeyRunes {
				item.value += string(msg.Runes)
			}
			return m, nil
		}
	}

	switch msg.String() {
	case "enter", " ":
		if item.cursor >= 0 && item.cursor < len(item.options) {
			item.value = item.options[item.cursor].value
		}
		item.editing = false
		m.state = stateMenu

		// Provider change reloads the host/expert voice option lists.
		if idx == idxProvider {
			opts := voiceOptionsForProvider(item.value)
			m.items[idxVoiceHost].options = opts
			m.items[idxVoiceHost].value = ""
			m.items[idxVoiceHost].cursor = 0
			m.items[idxVoiceExpert].options = opts
			m.items[idxVoiceExpert].value = ""
			m.items[idxVoiceExpert].cursor = 0
		}

		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil

	case "esc":
		item.editing = false
		m.state = stateMenu
		return m, nil

	case "up", "k":
		if item.cursor > 0 {
			item.cursor--
		}

	case "down", "j":
		if item.cursor < len(item.options)-1 {
			item.cursor++
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder

	header := headerBorder.Render(titleStyle.Render("Repocast"))
	b.WriteString(header)
	b.WriteString("\n")

	genIdx := m.generateIdx()

	for i, item := range m.items {
		isActive := m.cursor == i

		if i == genIdx {
			b.WriteString("\n")
			if isActive {
				b.WriteString("  " + buttonStyle.Render(" Generate "))
			} else {
				b.WriteString("  " + buttonDimStyle.Render(" Generate "))
			}
			b.WriteString("\n")
			continue
		}

		cursor := "  "
		if isActive {
			cursor = cursorStyle.Render("> ")
		}

		label := item.label
		if item.required {
			label = label + requiredStyle.Render("*")
		}
		renderedLabel := menuLabelStyle.Render(label)

		var renderedValue string
		switch {
		case item.editing && m.isTextInput(i):
			renderedValue = menuValueStyle.Render(item.value + "_")
		case item.value == "":
			renderedValue = menuValueDimStyle.Render("(not set)")
		default:
			displayVal := item.value
			for _, opt := range item.options {
				if opt.value == item.value {
					displayVal = opt.label
					break
				}
			}
			renderedValue = menuValueStyle.Render(displayVal)
		}

		b.WriteString(cursor + renderedLabel + " " + renderedValue + "\n")

		if item.editing && len(item.options) > 0 && !m.isTextInput(i) {
			for j, opt := range item.options {
				if j == item.cursor {
					b.WriteString(selectedOptionStyle.Render("> "+opt.label) + "\n")
				} else {
					b.WriteString(optionStyle.Render("  "+opt.label) + "\n")
				}
			}
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()) + "\n")
	}

	switch m.state {
	case stateMenu:
		b.WriteString(helpStyle.Render("  j/k or arrows to navigate | enter to edit | q to quit"))
	case stateEditing:
		if m.isTextInput(m.cursor) {
			b.WriteString(helpStyle.Render("  type value | enter to confirm | esc to cancel | ctrl+u to clear"))
		} else {
			b.WriteString(helpStyle.Render("  j/k or arrows to pick | enter to select | esc to cancel"))
		}
	}
	b.WriteString("\n")

	return b.String()
}

func runInteractiveSetup() error {
	m := initialTUIModel()

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tuiModel)
	if final.cancelled {
		return fmt.Errorf("cancelled")
	}
	if !final.confirmed {
		return fmt.Errorf("generation cancelled")
	}

	flagRepoURL = final.items[idxRepo].value
	flagTone = final.items[idxTone].value
	if d, err := strconv.Atoi(final.items[idxDuration].value); err == nil && d > 0 {
		flagDurationMin = d
	}
	flagTTS = final.items[idxProvider].value
	flagVoiceHost = final.items[idxVoiceHost].value
	flagVoiceExpert = final.items[idxVoiceExpert].value

	return nil
}
