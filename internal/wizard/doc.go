// Package wizard implements the multi-step record creation controller.
//
// A wizard is an ordered list of Steps, each collecting a subset of the
// draft's fields and carrying a validator. The controller derives an
// explicit transition table from the list: GoNext follows a step's Next
// only when its validator passes, GoBack follows Prev unconditionally, and
// the final step leaves only through Submit, which validates every step.
//
// Field errors are recomputed per step and never reference fields outside
// the step that produced them. UpdateField clears the edited field's error
// immediately.
//
// Submit is guarded by an in-flight flag: concurrent callers get
// ErrSubmitInFlight and cause no backend call. A failed submission keeps the
// draft and attachments so the user can fix the problem and retry; a
// successful one resets the wizard and releases every attachment handle.
//
// Validators are usually built with Rules, which evaluates
// go-playground/validator tags against the draft map:
//
//	wizard.Rules(map[string]string{
//	    "price":    "required,gt=0",
//	    "location": "required",
//	})
//
// Renderers read state through Snapshot and never touch the controller's
// internals.
package wizard
