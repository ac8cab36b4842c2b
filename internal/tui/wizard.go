package tui

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/wizard"
)

// submitResultMsg carries the outcome of an asynchronous Submit.
type submitResultMsg struct {
	err error
}

// wizardKeyMap defines key bindings for the wizard screen
type wizardKeyMap struct {
	NextField key.Binding
	PrevField key.Binding
	NextStep  key.Binding
	PrevStep  key.Binding
	Submit    key.Binding
	Attach    key.Binding
	Detach    key.Binding
	Cancel    key.Binding
	Help      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k wizardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.NextStep, k.PrevStep, k.Submit, k.Cancel, k.Help}
}

// FullHelp returns keybindings for the expanded help view
func (k wizardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField},
		{k.NextStep, k.PrevStep, k.Submit},
		{k.Attach, k.Detach},
		{k.Cancel, k.Help},
	}
}

// resultKeyMap defines key bindings for the success and failure panels
type resultKeyMap struct {
	Again key.Binding
	Edit  key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k resultKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Again, k.Edit, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k resultKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Again, k.Edit, k.Quit}}
}

func newWizardKeys() wizardKeyMap {
	return wizardKeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		NextStep: key.NewBinding(
			key.WithKeys("ctrl+n", "pgdown"),
			key.WithHelp("ctrl+n", "next step"),
		),
		PrevStep: key.NewBinding(
			key.WithKeys("ctrl+p", "pgup"),
			key.WithHelp("ctrl+p", "back"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		Attach: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "attach file"),
		),
		Detach: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "remove last file"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
	}
}

func newResultKeys() resultKeyMap {
	return resultKeyMap{
		Again: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "create another"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "r"),
			key.WithHelp("e", "back to form"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// WizardModel renders a wizard.Controller as a form: one text input per
// field of the active step, a step indicator and an attachment list.
// Inputs are parsed into the draft when they lose focus.
type WizardModel struct {
	Controller *wizard.Controller
	Title      string
	User       string

	Inputs      []textinput.Model
	Focus       int
	InputErrors map[string]string // parse errors, keyed by field name

	// Attachment path prompt
	Attaching   bool
	AttachInput textinput.Model
	Notice      string

	Spinner    spinner.Model
	Submitting bool

	// Result panels
	ShowingSuccess bool
	ShowingFailure bool
	LastError      error

	// Set when the user leaves the screen
	Cancelled bool
	Done      bool

	Width  int
	Height int

	Help       help.Model
	Keys       wizardKeyMap
	ResultKeys resultKeyMap

	ctx context.Context
}

// NewWizardModel creates the form screen for c. ctx bounds submissions.
func NewWizardModel(ctx context.Context, title string, c *wizard.Controller) WizardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	attach := textinput.New()
	attach.Placeholder = "/path/to/file.png"
	attach.CharLimit = 4096
	attach.Width = 50

	m := WizardModel{
		Controller:  c,
		Title:       title,
		InputErrors: map[string]string{},
		AttachInput: attach,
		Spinner:     s,
		Help:        help.New(),
		Keys:        newWizardKeys(),
		ResultKeys:  newResultKeys(),
		ctx:         ctx,
	}
	m.loadStep()
	return m
}

// Init focuses the first input
func (m WizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// loadStep rebuilds the inputs from the controller's active step.
func (m *WizardModel) loadStep() {
	snap := m.Controller.Snapshot()
	fields := snap.ActiveStep().Fields

	m.Inputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholder(f)
		in.CharLimit = 2000
		in.Width = 50
		in.SetValue(wizard.FormatValue(snap.Draft[f.Name]))
		m.Inputs[i] = in
	}
	m.Focus = 0
	m.InputErrors = map[string]string{}
	if len(m.Inputs) > 0 {
		m.Inputs[0].Focus()
	}
}

func placeholder(f wizard.Field) string {
	switch {
	case f.Placeholder != "":
		return f.Placeholder
	case f.Kind == wizard.KindChoice:
		return strings.Join(f.Options, " / ")
	case f.Kind == wizard.KindBool:
		return "yes / no"
	case f.Kind == wizard.KindDate:
		return "YYYY-MM-DD"
	case f.Kind == wizard.KindList:
		return "item; item; ..."
	}
	return ""
}

// commit parses input i into the draft.
func (m *WizardModel) commit(i int) {
	fields := m.Controller.Snapshot().ActiveStep().Fields
	if i < 0 || i >= len(fields) || i >= len(m.Inputs) {
		return
	}
	f := fields[i]
	v, err := wizard.ParseInput(f, m.Inputs[i].Value())
	if err != nil {
		m.InputErrors[f.Name] = err.Error()
		return
	}
	delete(m.InputErrors, f.Name)
	m.Controller.UpdateField(f.Name, v)
}

func (m *WizardModel) commitAll() bool {
	for i := range m.Inputs {
		m.commit(i)
	}
	return len(m.InputErrors) == 0
}

func (m *WizardModel) setFocus(i int) {
	if len(m.Inputs) == 0 {
		return
	}
	m.commit(m.Focus)
	m.Inputs[m.Focus].Blur()
	m.Focus = (i + len(m.Inputs)) % len(m.Inputs)
	m.Inputs[m.Focus].Focus()
}

// Update handles messages and updates the model
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case submitResultMsg:
		return m.handleSubmitResult(msg.err)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.ShowingSuccess || m.ShowingFailure:
			return m.updateResult(msg)
		case m.Submitting:
			return m, nil
		case m.Attaching:
			return m.updateAttach(msg)
		}
		return m.updateForm(msg)
	}

	// Cursor blink and other input messages
	var cmd tea.Cmd
	if m.Attaching {
		m.AttachInput, cmd = m.AttachInput.Update(msg)
	} else if len(m.Inputs) > 0 {
		m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
	}
	return m, cmd
}

func (m WizardModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.Notice = ""

	switch {
	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return m, nil

	case key.Matches(msg, m.Keys.Cancel):
		m.Controller.Cancel()
		m.Cancelled = true
		return m, nil

	case key.Matches(msg, m.Keys.NextField):
		m.setFocus(m.Focus + 1)
		return m, nil

	case key.Matches(msg, m.Keys.PrevField):
		m.setFocus(m.Focus - 1)
		return m, nil

	case key.Matches(msg, m.Keys.NextStep):
		if !m.commitAll() {
			return m, nil
		}
		before := m.Controller.ActiveStep()
		if err := m.Controller.GoNext(); err != nil {
			m.focusFirstError()
			return m, nil
		}
		if m.Controller.ActiveStep() == before {
			m.Notice = "Last step: press ctrl+s to submit"
			return m, nil
		}
		m.loadStep()
		return m, nil

	case key.Matches(msg, m.Keys.PrevStep):
		m.commitAll()
		if m.Controller.GoBack() {
			m.loadStep()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Submit):
		if !m.commitAll() {
			return m, nil
		}
		m.Submitting = true
		return m, tea.Batch(m.Spinner.Tick, m.submit())

	case key.Matches(msg, m.Keys.Attach):
		m.Attaching = true
		m.AttachInput.SetValue("")
		m.AttachInput.Focus()
		if len(m.Inputs) > 0 {
			m.Inputs[m.Focus].Blur()
		}
		return m, textinput.Blink

	case key.Matches(msg, m.Keys.Detach):
		if n := len(m.Controller.Attachments()); n > 0 {
			_ = m.Controller.RemoveAttachment(n - 1)
		}
		return m, nil
	}

	if len(m.Inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
	return m, cmd
}

func (m WizardModel) updateAttach(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.endAttach()
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.AttachInput.Value())
		if path == "" {
			m.endAttach()
			return m, nil
		}
		u, err := ReadUpload(path)
		if err == nil {
			_, err = m.Controller.AddAttachment(u)
		}
		if err != nil {
			m.Notice = err.Error()
		} else {
			m.Notice = "Attached " + u.FileName
		}
		m.endAttach()
		return m, nil
	}

	var cmd tea.Cmd
	m.AttachInput, cmd = m.AttachInput.Update(msg)
	return m, cmd
}

func (m *WizardModel) endAttach() {
	m.Attaching = false
	m.AttachInput.Blur()
	if len(m.Inputs) > 0 {
		m.Inputs[m.Focus].Focus()
	}
}

func (m WizardModel) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ResultKeys.Quit):
		m.Done = true
		return m, nil
	case key.Matches(msg, m.ResultKeys.Again) && m.ShowingSuccess:
		m.ShowingSuccess = false
		m.loadStep()
		return m, textinput.Blink
	case key.Matches(msg, m.ResultKeys.Edit) && m.ShowingFailure:
		m.ShowingFailure = false
		m.loadStep()
		return m, textinput.Blink
	}
	return m, nil
}

// submit runs the controller submission off the UI goroutine.
func (m WizardModel) submit() tea.Cmd {
	c := m.Controller
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return func() tea.Msg {
		return submitResultMsg{err: c.Submit(ctx)}
	}
}

func (m WizardModel) handleSubmitResult(err error) (tea.Model, tea.Cmd) {
	m.Submitting = false
	m.LastError = err

	switch {
	case err == nil:
		m.ShowingSuccess = true
	case wizard.IsValidationError(err):
		// Submit moved to the failing step.
		m.loadStep()
		m.focusFirstError()
	case errors.Is(err, wizard.ErrSubmitInFlight):
		m.Notice = "A submission is already in progress"
	default:
		m.ShowingFailure = true
	}
	return m, nil
}

func (m *WizardModel) focusFirstError() {
	if len(m.Inputs) == 0 {
		return
	}
	snap := m.Controller.Snapshot()
	for i, f := range snap.ActiveStep().Fields {
		if _, bad := snap.Errors[f.Name]; bad {
			m.Inputs[m.Focus].Blur()
			m.Focus = i
			m.Inputs[i].Focus()
			return
		}
	}
}

// ReadUpload loads a file from disk as an upload with a content type
// guessed from its extension.
func ReadUpload(path string) (apiclient.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return apiclient.Upload{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return apiclient.Upload{
		FileName:    filepath.Base(path),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:        data,
	}, nil
}

// View renders the wizard screen
func (m WizardModel) View() string {
	var content, footer string
	switch {
	case m.ShowingSuccess:
		content = m.buildSuccessContent()
		footer = m.Help.View(m.ResultKeys)
	case m.ShowingFailure:
		content = m.buildFailureContent()
		footer = m.Help.View(m.ResultKeys)
	default:
		content = m.buildFormContent()
		footer = m.Help.View(m.Keys)
	}
	return RenderApplicationContainer(content, footer, m.User, m.Width, m.Height)
}

func (m WizardModel) buildFormContent() string {
	snap := m.Controller.Snapshot()
	var b strings.Builder

	b.WriteString(RenderTitle(m.Title))
	b.WriteString("\n")
	b.WriteString(renderStepIndicator(snap))
	b.WriteString("\n\n")

	step := snap.ActiveStep()
	if len(step.Fields) == 0 {
		b.WriteString(renderReview(snap))
	}
	for i, f := range step.Fields {
		if i < len(m.Inputs) {
			b.WriteString(m.renderField(i, f, snap.Errors[f.Name]))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderAttachments(snap))

	if m.Attaching {
		b.WriteString("\n")
		b.WriteString(FocusedLabelStyle.Render("→ File path"))
		b.WriteString(" ")
		b.WriteString(m.AttachInput.View())
		b.WriteString("\n")
	}
	if m.Submitting {
		b.WriteString("\n")
		b.WriteString(m.Spinner.View() + " Submitting...")
		b.WriteString("\n")
	}
	if m.Notice != "" {
		b.WriteString("\n")
		b.WriteString(StatusStyle.Render(m.Notice))
		b.WriteString("\n")
	}
	return b.String()
}

// renderField renders one label/input row with its hint and error
func (m WizardModel) renderField(i int, f wizard.Field, validationErr string) string {
	var b strings.Builder

	label := f.Label
	if !f.Optional {
		label += " *"
	}
	if i == m.Focus && !m.Attaching {
		b.WriteString(FocusedLabelStyle.Render("→ " + label))
	} else {
		b.WriteString(LabelStyle.Render("  " + label))
	}
	b.WriteString(" ")
	b.WriteString(m.Inputs[i].View())
	b.WriteString("\n")

	if msg := m.InputErrors[f.Name]; msg != "" {
		validationErr = msg
	}
	if validationErr != "" {
		b.WriteString(FieldErrorStyle.Render("✗ " + validationErr))
		b.WriteString("\n")
	} else if i == m.Focus && f.Kind == wizard.KindChoice && len(f.Options) > 0 {
		b.WriteString(HintStyle.Render("one of: " + strings.Join(f.Options, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func renderStepIndicator(snap wizard.Snapshot) string {
	parts := make([]string, len(snap.Steps))
	for i, s := range snap.Steps {
		label := fmt.Sprintf("%d. %s", i+1, s.Label)
		switch {
		case i < snap.Active:
			parts[i] = StepDoneStyle.Render("✓ " + label)
		case i == snap.Active:
			parts[i] = StepActiveStyle.Render(label)
		default:
			parts[i] = StepPendingStyle.Render(label)
		}
	}
	return strings.Join(parts, StepPendingStyle.Render("  ›  "))
}

// renderReview lists every collected field for the final review step
func renderReview(snap wizard.Snapshot) string {
	var b strings.Builder
	for _, step := range snap.Steps {
		if len(step.Fields) == 0 {
			continue
		}
		b.WriteString(SubtitleStyle.Render(step.Label))
		b.WriteString("\n")
		for _, f := range step.Fields {
			value := wizard.FormatValue(snap.Draft[f.Name])
			if value == "" {
				value = "—"
			}
			b.WriteString(LabelStyle.Render("  " + f.Label))
			b.WriteString(" ")
			b.WriteString(value)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m WizardModel) renderAttachments(snap wizard.Snapshot) string {
	header := fmt.Sprintf("Attachments (%d/%d)", len(snap.Attachments), snap.MaxAttach)
	if len(snap.Attachments) == 0 {
		return StatusStyle.Render(header + ": none")
	}
	lines := []string{StatusStyle.Render(header + ":")}
	for _, a := range snap.Attachments {
		lines = append(lines, fmt.Sprintf("  • %s (%s)", a.FileName, formatSize(len(a.Data))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m WizardModel) buildSuccessContent() string {
	var b strings.Builder
	b.WriteString(RenderTitle(m.Title))
	b.WriteString("\n")
	b.WriteString(SuccessBoxStyle.Render("✓ Created successfully"))
	b.WriteString("\n\n")
	b.WriteString("The form has been reset. Press n to create another or q to quit.")
	return b.String()
}

func (m WizardModel) buildFailureContent() string {
	var b strings.Builder
	b.WriteString(RenderTitle(m.Title))
	b.WriteString("\n")
	b.WriteString(ErrorBoxStyle.Render("✗ " + apiclient.GetShortErrorMessage(m.LastError)))
	b.WriteString("\n\n")
	if hint := apiclient.GetTroubleshootingHint(m.LastError); hint != "" {
		b.WriteString(SubtitleStyle.Render(hint))
		b.WriteString("\n\n")
	}
	b.WriteString("Your entries and attachments were kept. Press e to return to the form.")
	return b.String()
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
