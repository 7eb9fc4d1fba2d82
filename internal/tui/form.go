package tui

import (
	"slices"
	"strings"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Field describes one input of a Form.
type Field struct {
	Key         string // field name used for values and validation errors
	Label       string
	Placeholder string
	CharLimit   int
	Width       int
	// Choices restricts the value to a fixed list cycled with left/right.
	Choices []string
}

// Form is a vertical stack of text inputs with per-field error messages.
type Form struct {
	fields  []Field
	inputs  []textinput.Model
	focused int
	errors  catalog.FieldErrors
}

const defaultFieldWidth = 42

// NewForm creates a form with the first field focused.
func NewForm(fields ...Field) Form {
	f := Form{
		fields: fields,
		inputs: make([]textinput.Model, len(fields)),
	}
	for i, fd := range fields {
		in := textinput.New()
		in.Placeholder = fd.Placeholder
		in.CharLimit = fd.CharLimit
		if in.CharLimit == 0 {
			in.CharLimit = 200
		}
		in.Width = fd.Width
		if in.Width == 0 {
			in.Width = defaultFieldWidth
		}
		in.Prompt = "│ "
		if len(fd.Choices) > 0 {
			in.SetValue(fd.Choices[0])
		}
		f.inputs[i] = in
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

// Init starts the cursor blink.
func (f Form) Init() tea.Cmd {
	return textinput.Blink
}

func (f Form) index(key string) int {
	return slices.IndexFunc(f.fields, func(fd Field) bool { return fd.Key == key })
}

// Value returns the current text of the field named key.
func (f Form) Value(key string) string {
	if i := f.index(key); i >= 0 {
		return f.inputs[i].Value()
	}
	return ""
}

// SetValue replaces the text of the field named key.
func (f *Form) SetValue(key, v string) {
	if i := f.index(key); i >= 0 {
		f.inputs[i].SetValue(v)
	}
}

// SetErrors replaces the displayed validation messages.
func (f *Form) SetErrors(errs catalog.FieldErrors) {
	f.errors = errs
}

// Errors returns the displayed validation messages.
func (f Form) Errors() catalog.FieldErrors {
	return f.errors
}

// Focused returns the key of the focused field.
func (f Form) Focused() string {
	if len(f.fields) == 0 {
		return ""
	}
	return f.fields[f.focused].Key
}

func (f *Form) focus(i int) tea.Cmd {
	n := len(f.inputs)
	if n == 0 {
		return nil
	}
	f.inputs[f.focused].Blur()
	f.focused = (i%n + n) % n
	return f.inputs[f.focused].Focus()
}

// Update handles focus movement and forwards other input to the focused field.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	if len(f.inputs) == 0 {
		return f, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "tab", "down":
			return f, f.focus(f.focused + 1)
		case "shift+tab", "up":
			return f, f.focus(f.focused - 1)
		case "left", "right":
			if choices := f.fields[f.focused].Choices; len(choices) > 0 {
				step := 1
				if km.String() == "left" {
					step = -1
				}
				cur := slices.Index(choices, f.inputs[f.focused].Value())
				next := ((cur+step)%len(choices) + len(choices)) % len(choices)
				f.inputs[f.focused].SetValue(choices[next])
				return f, nil
			}
		}
		if len(f.fields[f.focused].Choices) > 0 {
			return f, nil
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return f, cmd
}

// View renders every field with its label and error message.
func (f Form) View() string {
	labelStyle := lipgloss.NewStyle().Foreground(ColorGray)
	focusStyle := lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)

	var b strings.Builder
	for i, fd := range f.fields {
		label := labelStyle.Render(fd.Label)
		if i == f.focused {
			label = focusStyle.Render(fd.Label)
		}
		b.WriteString(label)
		if len(fd.Choices) > 0 {
			b.WriteString(StyleHelp.Render("  ← →"))
		}
		b.WriteString("\n")
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
		if msg, ok := f.errors[fd.Key]; ok {
			b.WriteString(StyleError.Render("  " + msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
