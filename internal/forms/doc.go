// Package forms defines the concrete creation wizards: marketplace listings
// and courses. Each wizard is a list of wizard.Steps plus the code that turns
// a finished draft into the backend payload (JSON without files, multipart
// with them).
package forms
