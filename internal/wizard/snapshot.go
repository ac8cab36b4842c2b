package wizard

// StepView is the renderer's view of one step.
type StepView struct {
	ID     StepID
	Label  string
	Fields []Field
}

// Snapshot is an immutable copy of the controller state for renderers.
type Snapshot struct {
	Name        string
	Steps       []StepView
	Active      int
	ActiveID    StepID
	Final       bool
	Draft       map[string]any
	Errors      map[string]string
	Attachments []Attachment
	MaxAttach   int
	Submitting  bool
}

// ActiveStep returns the view of the current step.
func (s Snapshot) ActiveStep() StepView {
	return s.Steps[s.Active]
}

// Snapshot copies the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	views := make([]StepView, len(c.steps))
	for i, s := range c.steps {
		views[i] = StepView{ID: s.ID, Label: s.Label, Fields: append([]Field(nil), s.Fields...)}
	}

	return Snapshot{
		Name:        c.name,
		Steps:       views,
		Active:      c.index[c.active],
		ActiveID:    c.active,
		Final:       c.transitions[c.active].Final,
		Draft:       copyDraft(c.draft),
		Errors:      copyErrors(c.errors),
		Attachments: append([]Attachment(nil), c.attachments...),
		MaxAttach:   c.opts.MaxAttachments,
		Submitting:  c.submitting,
	}
}
