package api

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Summary returns a one-line summary of the course.
func (c Course) Summary() string {
	return fmt.Sprintf("[%d] %s %s (%s, %s)", c.ID, c.Code, c.Title, orNone(c.Level), orNone(c.Status))
}

// FormatCompact returns a compact multi-line format suitable for terminal display.
func (c Course) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Course:   %s %s (ID: %d)\n", c.Code, c.Title, c.ID))
	b.WriteString(fmt.Sprintf("Category: %s\n", orNone(c.CategoryName())))
	b.WriteString(fmt.Sprintf("Level:    %s  Status: %s\n", orNone(c.Level), orNone(c.Status)))
	b.WriteString(fmt.Sprintf("Price:    %s\n", c.FormatPrice()))

	return b.String()
}

// FormatDetailed returns every course field in labelled sections.
func (c Course) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Course ===\n")
	b.WriteString(fmt.Sprintf("ID:          %d\n", c.ID))
	b.WriteString(fmt.Sprintf("Code:        %s\n", c.Code))
	b.WriteString(fmt.Sprintf("Title:       %s\n", c.Title))
	b.WriteString(fmt.Sprintf("Category:    %s\n", orNone(c.CategoryName())))
	b.WriteString(fmt.Sprintf("Level:       %s\n", orNone(c.Level)))
	b.WriteString(fmt.Sprintf("Status:      %s\n", orNone(c.Status)))
	b.WriteString(fmt.Sprintf("Duration:    %s\n", orNone(string(c.Duration))))
	b.WriteString(fmt.Sprintf("Price:       %s\n", c.FormatPrice()))
	b.WriteString(fmt.Sprintf("Students:    %d\n", c.TotalStudents))
	if c.Description != "" {
		b.WriteString("\n=== Description ===\n")
		b.WriteString(c.Description)
		b.WriteString("\n")
	}
	if len(c.LearningOutcomes) > 0 {
		b.WriteString("\n=== Learning Outcomes ===\n")
		for _, o := range c.LearningOutcomes {
			b.WriteString("  - " + o + "\n")
		}
	}
	if len(c.Prerequisites) > 0 {
		b.WriteString("\n=== Prerequisites ===\n")
		for _, p := range c.Prerequisites {
			b.WriteString("  - " + p + "\n")
		}
	}
	b.WriteString("\n=== Features ===\n")
	b.WriteString(fmt.Sprintf("Certificate: %s\n", enabled(c.CertificateEnabled)))
	b.WriteString(fmt.Sprintf("SCORM/xAPI:  %s\n", enabled(c.SCORMEnabled)))

	return b.String()
}

// FormatPrice renders the price with currency and any discount, or "Free".
func (c Course) FormatPrice() string {
	price := c.Price.Float()
	if price == 0 {
		return "Free"
	}
	currency := c.Currency
	if currency == "" {
		currency = "NGN"
	}
	s := fmt.Sprintf("%s %.2f", currency, price)
	if d := c.DiscountPrice.Float(); d > 0 && d < price {
		s += fmt.Sprintf(" (discounted to %.2f)", d)
	}
	return s
}

// Line renders an activity the way the activity feed shows it:
// "2024-05-01 09:30  alice logged in".
func (a Activity) Line() string {
	ts := "-"
	if !a.Timestamp.IsZero() {
		ts = a.Timestamp.Local().Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%s  %s %s", ts, a.User, a.Verb())
}

// Ago renders the activity age relative to now ("5m ago").
func (a Activity) Ago(now time.Time) string {
	d := now.Sub(a.Timestamp)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}

// Summary returns a one-line summary of the user.
func (u User) Summary() string {
	return fmt.Sprintf("[%d] %s <%s> %s", u.ID, u.FullName(), u.Email, orNone(u.Role))
}

// FormatChanges summarises a bulk enrollment outcome.
func (r BulkEnrollResult) FormatChanges() string {
	var b strings.Builder
	b.WriteString("=== Enrollment Result ===\n")
	b.WriteString(fmt.Sprintf("Enrolled:         %d\n", r.Created))
	b.WriteString(fmt.Sprintf("Already enrolled: %d\n", r.AlreadyEnrolled))
	if r.Message != "" {
		b.WriteString(r.Message + "\n")
	}
	return b.String()
}

// FormatRecord renders an untyped record as sorted "key: value" lines.
func FormatRecord(r Record) string {
	keys := make([]string, 0, len(r))
	width := 0
	for k := range r {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%-*s  %s\n", width+1, k+":", r.String(k)))
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func enabled(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}
