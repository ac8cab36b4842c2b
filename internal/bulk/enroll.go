package bulk

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/logging"
)

// emailColumns are the accepted spellings of the email header, in lookup order.
var emailColumns = []string{"email", "Email", "EMAIL"}

// UserDirectory lists every user account.
type UserDirectory interface {
	All(ctx context.Context) ([]api.User, error)
}

// CourseEnroller enrolls users into a course in one request.
type CourseEnroller interface {
	AdminBulkEnrollCourse(ctx context.Context, courseID int64, userIDs []int64) (api.BulkEnrollResult, error)
}

// RequireEmailColumn rejects files without data rows or without an email
// column. It never touches the network.
func RequireEmailColumn(sheet *Sheet) error {
	if sheet == nil || len(sheet.Rows) == 0 {
		return fileError(sheetName(sheet), "file is empty or improperly formatted", nil)
	}
	if emailColumn(sheet.Rows[0]) == "" {
		return fileError(sheet.Name, `file must contain an "email" column`, nil)
	}
	return nil
}

func emailColumn(row Row) string {
	for _, col := range emailColumns {
		if _, ok := row[col]; ok {
			return col
		}
	}
	return ""
}

// Email returns the row's address from the first non-empty email column.
func (r Row) Email() string {
	for _, col := range emailColumns {
		if v := strings.TrimSpace(r[col]); v != "" {
			return v
		}
	}
	return ""
}

// Emails returns the non-empty addresses of rows, in file order.
func Emails(rows []Row) []string {
	var out []string
	for _, row := range rows {
		if e := row.Email(); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// EnrollReport describes what EnrollFromFile did.
type EnrollReport struct {
	Result    api.BulkEnrollResult
	Matched   []api.User
	Unmatched []string
}

// Summary returns a one-line description of the enrollment.
func (r *EnrollReport) Summary() string {
	created := r.Result.Created
	if created == 0 && r.Result.AlreadyEnrolled == 0 {
		created = len(r.Matched)
	}
	s := fmt.Sprintf("Successfully enrolled %d users", created)
	if r.Result.AlreadyEnrolled > 0 {
		s += fmt.Sprintf(" (%d were already enrolled)", r.Result.AlreadyEnrolled)
	}
	if len(r.Unmatched) > 0 {
		s += fmt.Sprintf("; %d address(es) had no account", len(r.Unmatched))
	}
	return s
}

// Enroller runs file-driven enrollments.
type Enroller struct {
	Users       UserDirectory
	Enrollments CourseEnroller
}

// NewEnroller wires an Enroller to svc.
func NewEnroller(svc *api.Service) *Enroller {
	return &Enroller{Users: svc.Users, Enrollments: svc.Enrollments}
}

// EnrollFromFile parses the named file, matches its email column against the
// user list and enrolls the matching users into courseID. Files that fail
// parsing or lack an email column are rejected before any request is made.
func (e *Enroller) EnrollFromFile(ctx context.Context, courseID int64, name string, r io.Reader) (*EnrollReport, error) {
	sheet, err := ParseFile(name, r)
	if err != nil {
		return nil, err
	}
	if err := RequireEmailColumn(sheet); err != nil {
		return nil, err
	}
	return e.EnrollEmails(ctx, courseID, Emails(sheet.Rows))
}

// EnrollEmails enrolls the users owning emails into courseID. Matching is
// case-insensitive.
func (e *Enroller) EnrollEmails(ctx context.Context, courseID int64, emails []string) (*EnrollReport, error) {
	if len(emails) == 0 {
		return nil, ErrNoValidEmails
	}

	users, err := e.Users.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	byEmail := make(map[string]api.User, len(users))
	for _, u := range users {
		byEmail[strings.ToLower(u.Email)] = u
	}

	report := &EnrollReport{}
	seen := make(map[int64]bool)
	var ids []int64
	for _, email := range emails {
		u, ok := byEmail[strings.ToLower(email)]
		if !ok {
			report.Unmatched = append(report.Unmatched, email)
			continue
		}
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		ids = append(ids, u.ID)
		report.Matched = append(report.Matched, u)
	}
	if len(ids) == 0 {
		return nil, ErrNoMatchingUsers
	}

	logging.Info("bulk enrolling users",
		zap.Int64("course_id", courseID),
		zap.Int("matched", len(ids)),
		zap.Int("unmatched", len(report.Unmatched)),
	)

	res, err := e.Enrollments.AdminBulkEnrollCourse(ctx, courseID, ids)
	if err != nil {
		return nil, err
	}
	report.Result = res
	return report, nil
}
