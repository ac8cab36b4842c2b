package wizard

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/logging"
)

// DefaultMaxAttachments is the attachment cap when Options leaves it unset.
const DefaultMaxAttachments = 10

// Attachment is a file held by the wizard until submission. Handle is a
// locally generated preview reference.
type Attachment struct {
	Handle string
	apiclient.Upload
}

// ReleaseFunc is called once for every attachment handle the wizard drops.
type ReleaseFunc func(Attachment)

// SubmitFunc sends the draft and attachments to the backend. Both are copies.
type SubmitFunc func(ctx context.Context, draft map[string]any, attachments []Attachment) error

// Options tune a Controller.
type Options struct {
	MaxAttachments int
	Release        ReleaseFunc
	// Initial seeds the draft on construction and after every reset.
	Initial map[string]any
}

// Controller drives a linear multi-step wizard. It is safe for concurrent use.
type Controller struct {
	name        string
	steps       []Step
	index       map[StepID]int
	transitions map[StepID]Transition
	submit      SubmitFunc
	opts        Options

	mu          sync.Mutex
	active      StepID
	draft       map[string]any
	errors      map[string]string
	attachments []Attachment
	submitting  bool
}

// New builds a controller named name (used in logs) over steps.
func New(name string, steps []Step, submit SubmitFunc, opts Options) (*Controller, error) {
	transitions, err := buildTransitions(steps)
	if err != nil {
		return nil, err
	}
	if opts.MaxAttachments <= 0 {
		opts.MaxAttachments = DefaultMaxAttachments
	}

	c := &Controller{
		name:        name,
		steps:       append([]Step(nil), steps...),
		index:       make(map[StepID]int, len(steps)),
		transitions: transitions,
		submit:      submit,
		opts:        opts,
	}
	for i, s := range steps {
		c.index[s.ID] = i
	}
	c.resetLocked()
	return c, nil
}

// Steps returns the step definitions.
func (c *Controller) Steps() []Step {
	return append([]Step(nil), c.steps...)
}

// ActiveStep returns the current step ID.
func (c *Controller) ActiveStep() StepID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// ActiveIndex returns the position of the current step.
func (c *Controller) ActiveIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index[c.active]
}

// GoNext validates the current step and advances when it passes. On the
// final step a passing validation leaves the wizard where it is. A failing
// step returns a *ValidationError and does not move.
func (c *Controller) GoNext() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := c.steps[c.index[c.active]]
	failed := c.validateStepLocked(step)
	if len(failed) > 0 {
		logging.LogWizardTransition(c.name, string(c.active), string(c.active), "next-rejected")
		return &ValidationError{Step: step.ID, Fields: failed}
	}

	t := c.transitions[c.active]
	if t.Final {
		return nil
	}
	logging.LogWizardTransition(c.name, string(c.active), string(t.Next), "next")
	c.activateLocked(t.Next)
	return nil
}

// GoBack moves to the previous step without validating. It reports whether
// the step changed.
func (c *Controller) GoBack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.transitions[c.active].Prev
	if prev == c.active {
		return false
	}
	logging.LogWizardTransition(c.name, string(c.active), string(prev), "back")
	c.activateLocked(prev)
	return true
}

// UpdateField sets draft[name] and clears any error recorded for it.
func (c *Controller) UpdateField(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft[name] = value
	delete(c.errors, name)
}

// Field returns draft[name].
func (c *Controller) Field(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.draft[name]
	return v, ok
}

// Draft returns a copy of the draft.
func (c *Controller) Draft() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyDraft(c.draft)
}

// Errors returns a copy of the current field errors.
func (c *Controller) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyErrors(c.errors)
}

// AddAttachment appends an upload with a fresh preview handle. At the cap it
// returns ErrAttachmentLimit and changes nothing.
func (c *Controller) AddAttachment(u apiclient.Upload) (Attachment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.attachments) >= c.opts.MaxAttachments {
		return Attachment{}, ErrAttachmentLimit
	}
	a := Attachment{Handle: uuid.NewString(), Upload: u}
	c.attachments = append(c.attachments, a)
	return a, nil
}

// RemoveAttachment drops the attachment at i and releases its handle.
func (c *Controller) RemoveAttachment(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.attachments) {
		return ErrAttachmentIndex
	}
	a := c.attachments[i]
	c.attachments = append(c.attachments[:i:i], c.attachments[i+1:]...)
	c.release(a)
	return nil
}

// Attachments returns a copy of the attachment list.
func (c *Controller) Attachments() []Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Attachment(nil), c.attachments...)
}

// Submitting reports whether a submission is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Submit validates every step, then sends the draft. While one submission
// runs, further calls return ErrSubmitInFlight without calling the backend.
// A failing step becomes the active step and a *ValidationError is returned.
// A backend error is returned as is and leaves draft and attachments intact.
// Success resets the wizard.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}

	for _, step := range c.steps {
		if failed := c.validateStepLocked(step); len(failed) > 0 {
			logging.LogWizardTransition(c.name, string(c.active), string(step.ID), "submit-rejected")
			c.activateLocked(step.ID)
			c.mu.Unlock()
			return &ValidationError{Step: step.ID, Fields: failed}
		}
	}

	c.submitting = true
	draft := copyDraft(c.draft)
	attachments := append([]Attachment(nil), c.attachments...)
	c.mu.Unlock()

	err := c.submit(ctx, draft, attachments)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		logging.LogWizardTransition(c.name, string(c.active), string(c.active), "submit-failed")
		return err
	}
	logging.LogWizardTransition(c.name, string(c.active), string(c.steps[0].ID), "submitted")
	c.releaseAllLocked()
	c.resetLocked()
	return nil
}

// Reset discards the draft, errors and attachments and returns to the first step.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseAllLocked()
	c.resetLocked()
}

// Cancel is Reset under the name the UI uses.
func (c *Controller) Cancel() {
	logging.LogWizardTransition(c.name, string(c.ActiveStep()), "", "cancel")
	c.Reset()
}

// validateStepLocked runs step's validator and records errors for the
// step's own fields only. It returns the failing fields.
func (c *Controller) validateStepLocked(step Step) map[string]string {
	result := step.Validate(copyDraft(c.draft))

	failed := make(map[string]string)
	for _, name := range step.FieldNames() {
		if msg, ok := result[name]; ok {
			c.errors[name] = msg
			failed[name] = msg
		} else {
			delete(c.errors, name)
		}
	}
	return failed
}

// activateLocked makes id the active step and drops errors for fields the
// step does not own.
func (c *Controller) activateLocked(id StepID) {
	c.active = id
	step := c.steps[c.index[id]]
	for name := range c.errors {
		if !step.owns(name) {
			delete(c.errors, name)
		}
	}
}

func (c *Controller) resetLocked() {
	c.active = c.steps[0].ID
	c.draft = copyDraft(c.opts.Initial)
	c.errors = make(map[string]string)
	c.attachments = nil
}

func (c *Controller) releaseAllLocked() {
	for _, a := range c.attachments {
		c.release(a)
	}
	c.attachments = nil
}

func (c *Controller) release(a Attachment) {
	if c.opts.Release != nil {
		c.opts.Release(a)
	}
}

func copyDraft(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if list, ok := v.([]string); ok && list != nil {
			v = append(make([]string, 0, len(list)), list...)
		}
		out[k] = v
	}
	return out
}

func copyErrors(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
