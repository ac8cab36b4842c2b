// Package tui implements the full-screen terminal screens of lmsadmin.
//
// It is built on Bubble Tea and follows the Model-Update-View pattern. Every
// screen renders through RenderApplicationContainer, which draws a shared
// header, the screen content and a footer with context-sensitive key help.
//
// # Screens
//
//   - Wizard: renders any wizard.Controller (course or listing creation) as a
//     step-by-step form with a step indicator, inline field errors, an
//     attachment list and success/failure panels.
//   - Activity: browses the activity log through a listview.ActivityFeed
//     with search, type and date-range filters, paging and an optional live
//     event stream.
//
// # Usage Example
//
//	c, _ := forms.NewListingWizard(svc.Listings, wizard.Options{})
//	outcome, err := tui.RunWizard(ctx, "New Listing", user, c)
//
// # Wizard Key Bindings
//
//   - tab / shift+tab: move between fields (the field is parsed when it loses focus)
//   - ctrl+n / ctrl+p: next and previous step
//   - ctrl+s: submit from any step; a failing step becomes the active one
//   - ctrl+a / ctrl+x: attach a file by path, remove the last attachment
//   - esc: cancel and discard the draft
//
// Submissions run as Bubble Tea commands so the spinner keeps moving. A
// backend failure keeps the draft and attachments; the failure panel shows
// apiclient.GetShortErrorMessage for the error.
//
// # Thread Safety
//
// All model updates occur in the Bubble Tea goroutine. The wizard controller
// and activity feed are themselves safe for concurrent use, so commands may
// call them from their own goroutines.
package tui
