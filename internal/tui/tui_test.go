package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/listview"
	"github.com/muurk/lmsadmin/internal/wizard"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press feeds keys to m and returns the final model and the last command.
func press[M tea.Model](t *testing.T, m M, keys ...string) (M, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(M)
	}
	return m, cmd
}

// collect runs cmd, expanding batches, and returns every resulting message.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

type recorder struct {
	mu     sync.Mutex
	drafts []map[string]any
	files  int
	err    error
}

func (r *recorder) submit(_ context.Context, draft map[string]any, attachments []wizard.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts = append(r.drafts, draft)
	r.files = len(attachments)
	return r.err
}

func newTestWizard(t *testing.T, rec *recorder) WizardModel {
	t.Helper()
	steps := []wizard.Step{
		{
			ID:    "basic",
			Label: "Basics",
			Fields: []wizard.Field{
				{Name: "title", Label: "Title", Kind: wizard.KindText},
				{Name: "price", Label: "Price", Kind: wizard.KindNumber, Optional: true},
			},
			Validate: func(d map[string]any) map[string]string {
				if s, _ := d["title"].(string); s == "" {
					return map[string]string{"title": "Title is required"}
				}
				return nil
			},
		},
		{ID: "review", Label: "Review", Validate: wizard.NoValidation},
	}
	c, err := wizard.New("test", steps, rec.submit, wizard.Options{MaxAttachments: 2})
	if err != nil {
		t.Fatalf("wizard.New() error = %v", err)
	}
	m := NewWizardModel(context.Background(), "New Thing", c)
	m.Width, m.Height = 100, 40
	return m
}

func TestWizardModel_StepNavigation(t *testing.T) {
	m := newTestWizard(t, &recorder{})

	m, _ = press(t, m, "ctrl+n")
	if m.Controller.ActiveStep() != "basic" {
		t.Fatalf("advanced with a blank title")
	}
	if !strings.Contains(m.View(), "Title is required") {
		t.Error("field error not rendered")
	}

	m, _ = press(t, m, "G", "o", "ctrl+n")
	if got := m.Controller.ActiveStep(); got != "review" {
		t.Fatalf("active step = %q, want review", got)
	}
	if len(m.Inputs) != 0 {
		t.Errorf("review step has %d inputs", len(m.Inputs))
	}
	if !strings.Contains(m.View(), "Go") {
		t.Error("review does not list the entered title")
	}

	m, _ = press(t, m, "ctrl+p")
	if m.Controller.ActiveStep() != "basic" || m.Inputs[0].Value() != "Go" {
		t.Errorf("back: step = %q, title = %q", m.Controller.ActiveStep(), m.Inputs[0].Value())
	}
}

func TestWizardModel_ParseErrorBlocksNext(t *testing.T) {
	m := newTestWizard(t, &recorder{})

	m, _ = press(t, m, "x", "tab", "a", "b", "c", "tab")
	if m.InputErrors["price"] == "" {
		t.Fatalf("no parse error for price, errors = %v", m.InputErrors)
	}
	m, _ = press(t, m, "ctrl+n")
	if m.Controller.ActiveStep() != "basic" {
		t.Error("advanced past an unparseable field")
	}
	if !strings.Contains(m.View(), "Price must be a number") {
		t.Error("parse error not rendered")
	}
}

func TestWizardModel_SubmitSuccess(t *testing.T) {
	rec := &recorder{}
	m := newTestWizard(t, rec)

	m, cmd := press(t, m, "G", "o", "tab", "9", "ctrl+s")
	if !m.Submitting {
		t.Fatal("not submitting after ctrl+s")
	}

	var result tea.Msg
	for _, msg := range collect(cmd) {
		if r, ok := msg.(submitResultMsg); ok {
			result = r
		}
	}
	if result == nil {
		t.Fatal("submit command produced no result")
	}
	next, _ := m.Update(result)
	m = next.(WizardModel)

	if !m.ShowingSuccess || m.Submitting {
		t.Fatalf("ShowingSuccess = %v, Submitting = %v", m.ShowingSuccess, m.Submitting)
	}
	if len(rec.drafts) != 1 || rec.drafts[0]["title"] != "Go" || rec.drafts[0]["price"] != 9.0 {
		t.Errorf("submitted drafts = %v", rec.drafts)
	}

	m, _ = press(t, m, "n")
	if m.ShowingSuccess || m.Inputs[0].Value() != "" {
		t.Error("form not reset for another entry")
	}
}

func TestWizardModel_SubmitFailureKeepsDraft(t *testing.T) {
	rec := &recorder{err: apiclient.NewHTTPError(500, []byte(`{"detail":"boom"}`))}
	m := newTestWizard(t, rec)

	m, _ = press(t, m, "G", "o")
	m.commitAll()

	next, _ := m.Update(submitResultMsg{err: m.Controller.Submit(context.Background())})
	m = next.(WizardModel)
	if !m.ShowingFailure {
		t.Fatal("failure panel not shown")
	}
	if !strings.Contains(m.View(), "entries and attachments were kept") {
		t.Error("failure panel text missing")
	}

	m, _ = press(t, m, "e")
	if m.ShowingFailure || m.Inputs[0].Value() != "Go" {
		t.Errorf("after edit: failure = %v, title = %q", m.ShowingFailure, m.Inputs[0].Value())
	}
}

func TestWizardModel_SubmitValidationMovesToStep(t *testing.T) {
	m := newTestWizard(t, &recorder{})

	m, _ = press(t, m, "G", "o", "ctrl+n")
	m.Controller.UpdateField("title", "")

	next, _ := m.Update(submitResultMsg{err: m.Controller.Submit(context.Background())})
	m = next.(WizardModel)
	if m.ShowingFailure {
		t.Error("validation failure shown as a backend failure")
	}
	if m.Controller.ActiveStep() != "basic" || len(m.Inputs) != 2 {
		t.Errorf("step = %q, inputs = %d", m.Controller.ActiveStep(), len(m.Inputs))
	}
}

func TestWizardModel_Attachments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	m := newTestWizard(t, &recorder{})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	m = next.(WizardModel)
	if !m.Attaching {
		t.Fatal("ctrl+a did not open the path prompt")
	}
	m.AttachInput.SetValue(path)
	m, _ = press(t, m, "enter")

	atts := m.Controller.Attachments()
	if len(atts) != 1 || atts[0].FileName != "photo.png" || atts[0].ContentType != "image/png" {
		t.Fatalf("attachments = %+v", atts)
	}
	if !strings.Contains(m.View(), "Attachments (1/2)") {
		t.Error("attachment count not rendered")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	m = next.(WizardModel)
	if len(m.Controller.Attachments()) != 0 {
		t.Error("ctrl+x did not remove the attachment")
	}
}

func TestReadUpload_Missing(t *testing.T) {
	if _, err := ReadUpload(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Error("ReadUpload() of a missing file succeeded")
	}
}

func TestAppModel_CancelQuits(t *testing.T) {
	app := NewWizardApp(newTestWizard(t, &recorder{}))

	next, cmd := app.Update(keyMsg("esc"))
	app = next.(AppModel)
	if !app.Cancelled {
		t.Error("Cancelled not set")
	}
	if cmd == nil {
		t.Fatal("no command after cancel")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("cancel did not quit")
	}
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestFeed(n int) *listview.ActivityFeed {
	items := make([]api.Activity, n)
	for i := range items {
		typ := "login"
		if i%2 == 1 {
			typ = "course_view"
		}
		items[i] = api.Activity{
			ID:           int64(i + 1),
			User:         "user" + string(rune('a'+i%26)),
			ActivityType: typ,
			Timestamp:    testNow.Add(-time.Duration(i) * 24 * time.Hour),
		}
	}
	f := listview.NewActivityFeed(func(context.Context) ([]api.Activity, error) {
		return items, nil
	})
	f.Now = func() time.Time { return testNow }
	return f
}

func loadedActivityModel(t *testing.T, f *listview.ActivityFeed, live <-chan api.Activity) ActivityModel {
	t.Helper()
	m := NewActivityModel(context.Background(), f, live)
	next, _ := m.Update(activityLoadedMsg{err: f.Load(context.Background())})
	return next.(ActivityModel)
}

func TestActivityModel_Paging(t *testing.T) {
	m := loadedActivityModel(t, newTestFeed(12), nil)

	if m.Loading || len(m.Table.Rows()) != 10 {
		t.Fatalf("loading = %v, rows = %d", m.Loading, len(m.Table.Rows()))
	}

	m, _ = press(t, m, "right")
	if got := len(m.Table.Rows()); got != 2 {
		t.Errorf("page 2 rows = %d, want 2", got)
	}
	m, _ = press(t, m, "right")
	if m.Feed.Page().Page != 1 {
		t.Error("paged past the last page")
	}

	m, _ = press(t, m, "s")
	if v := m.Feed.Page(); v.PageSize != 25 || v.Page != 0 || len(m.Table.Rows()) != 12 {
		t.Errorf("after page size change: %+v, rows = %d", v, len(m.Table.Rows()))
	}
}

func TestActivityModel_Filters(t *testing.T) {
	m := loadedActivityModel(t, newTestFeed(12), nil)

	m, _ = press(t, m, "t")
	if got := m.Feed.Filter().Type; got != "login" {
		t.Errorf("type = %q, want login", got)
	}
	if got := len(m.Table.Rows()); got != 6 {
		t.Errorf("login rows = %d, want 6", got)
	}
	m, _ = press(t, m, "t", "t")
	if got := m.Feed.Filter().Type; got != "" {
		t.Errorf("type after full cycle = %q, want any", got)
	}

	m, _ = press(t, m, "w", "w")
	if got := m.Feed.Filter().Window; got != listview.WindowWeek {
		t.Errorf("window = %q, want week", got)
	}
	if got := len(m.Table.Rows()); got != 7 {
		t.Errorf("week rows = %d, want 7", got)
	}

	m, _ = press(t, m, "w", "w", "/", "u", "s", "e", "r", "c", "enter")
	if m.Searching {
		t.Error("still searching after enter")
	}
	if got := len(m.Table.Rows()); got != 1 {
		t.Errorf("search rows = %d, want 1", got)
	}
}

func TestActivityModel_Live(t *testing.T) {
	live := make(chan api.Activity, 1)
	m := loadedActivityModel(t, newTestFeed(3), live)

	live <- api.Activity{ID: 99, User: "newbie", ActivityType: "login", Timestamp: testNow}
	next, cmd := m.Update(waitForActivity(live)())
	m = next.(ActivityModel)
	if m.LiveCount != 1 || m.Feed.Len() != 4 {
		t.Errorf("LiveCount = %d, Len = %d", m.LiveCount, m.Feed.Len())
	}
	if cmd == nil {
		t.Fatal("live subscription not re-armed")
	}

	close(live)
	next, _ = m.Update(cmd())
	m = next.(ActivityModel)
	if !m.LiveEnded || !strings.Contains(m.View(), "live feed closed") {
		t.Error("closed live feed not reported")
	}
}

func TestActivityModel_LoadError(t *testing.T) {
	f := listview.NewActivityFeed(func(context.Context) ([]api.Activity, error) {
		return nil, errors.New("connection refused")
	})
	m := loadedActivityModel(t, f, nil)
	if !strings.Contains(m.View(), "Press r to retry") {
		t.Error("load error not rendered")
	}
}
