package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/listview"
	"github.com/muurk/lmsadmin/internal/wizard"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenWizard   Screen = "wizard"
	ScreenActivity Screen = "activity"
)

// AppModel is the top-level coordinator model. It forwards messages to the
// active screen and quits when that screen is finished.
type AppModel struct {
	CurrentScreen Screen

	// Screen models
	WizardModel   WizardModel
	ActivityModel ActivityModel

	// Outcome
	Submitted bool
	Cancelled bool
	LastError error

	// UI state
	Width  int
	Height int
}

// NewWizardApp starts the application on the wizard screen
func NewWizardApp(w WizardModel) AppModel {
	return AppModel{CurrentScreen: ScreenWizard, WizardModel: w}
}

// NewActivityApp starts the application on the activity screen
func NewActivityApp(a ActivityModel) AppModel {
	return AppModel{CurrentScreen: ScreenActivity, ActivityModel: a}
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenWizard:
		return m.WizardModel.Init()
	case ScreenActivity:
		return m.ActivityModel.Init()
	default:
		return nil
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			m.Cancelled = true
			return m, tea.Quit
		}
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.CurrentScreen {
	case ScreenWizard:
		updated, c := m.WizardModel.Update(msg)
		m.WizardModel = updated.(WizardModel)
		cmd = c

		if m.WizardModel.ShowingSuccess {
			m.Submitted = true
		}
		m.LastError = m.WizardModel.LastError
		if m.WizardModel.Cancelled {
			m.Cancelled = !m.Submitted
			return m, tea.Quit
		}
		if m.WizardModel.Done {
			return m, tea.Quit
		}

	case ScreenActivity:
		updated, c := m.ActivityModel.Update(msg)
		m.ActivityModel = updated.(ActivityModel)
		cmd = c

		if m.ActivityModel.Done {
			return m, tea.Quit
		}
	}

	return m, cmd
}

// View renders the current screen
// Each screen handles its own container using RenderApplicationContainer()
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenWizard:
		return m.WizardModel.View()
	case ScreenActivity:
		return m.ActivityModel.View()
	default:
		return "Unknown screen"
	}
}

// WizardOutcome reports how an interactive wizard session ended.
type WizardOutcome struct {
	Submitted bool  // at least one submission succeeded
	Cancelled bool  // the user left without submitting
	LastError error // last submission error, if any
}

// RunWizard runs c full screen until the user quits.
func RunWizard(ctx context.Context, title, user string, c *wizard.Controller) (WizardOutcome, error) {
	w := NewWizardModel(ctx, title, c)
	w.User = user

	final, err := tea.NewProgram(NewWizardApp(w), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return WizardOutcome{}, fmt.Errorf("wizard UI failed: %w", err)
	}
	app := final.(AppModel)
	return WizardOutcome{Submitted: app.Submitted, Cancelled: app.Cancelled, LastError: app.LastError}, nil
}

// RunActivity runs the activity browser over f until the user quits. live
// may be nil.
func RunActivity(ctx context.Context, user string, f *listview.ActivityFeed, live <-chan api.Activity) error {
	a := NewActivityModel(ctx, f, live)
	a.User = user

	if _, err := tea.NewProgram(NewActivityApp(a), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("activity UI failed: %w", err)
	}
	return nil
}
