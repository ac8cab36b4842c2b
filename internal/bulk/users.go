package bulk

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/logging"
)

// UserColumns is the header of a bulk user upload file.
var UserColumns = []string{
	"firstName", "lastName", "email", "password", "role",
	"birthDate", "status", "department", "courseIds",
}

var requiredUserColumns = []string{"firstName", "lastName", "email", "password", "role"}

// UserRoles are the roles a bulk-created account may have.
var UserRoles = []string{"student", "instructor", "admin", "super_admin", "iqa", "eqa"}

// UserStatuses are the statuses a bulk-created account may have.
var UserStatuses = []string{"active", "inactive", "pending"}

// MinPasswordLength is the shortest password accepted for a new account.
const MinPasswordLength = 8

// followUpConcurrency caps parallel enroll/welcome calls after an upload.
const followUpConcurrency = 4

var validate = validator.New()

// CourseCatalog lists every course.
type CourseCatalog interface {
	All(ctx context.Context, search, category, level string) ([]api.Course, error)
}

// Reference is the server state rows are validated against.
type Reference struct {
	Emails  map[string]bool // lower-cased addresses already in use
	Courses map[int64]bool
}

// LoadReference fetches existing users and courses concurrently.
func LoadReference(ctx context.Context, users UserDirectory, courses CourseCatalog) (*Reference, error) {
	ref := &Reference{Emails: map[string]bool{}, Courses: map[int64]bool{}}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := users.All(ctx)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		for _, u := range list {
			ref.Emails[strings.ToLower(u.Email)] = true
		}
		return nil
	})
	g.Go(func() error {
		list, err := courses.All(ctx, "", "", "")
		if err != nil {
			return fmt.Errorf("failed to load courses: %w", err)
		}
		for _, c := range list {
			ref.Courses[c.ID] = true
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ref, nil
}

// CourseIDs splits the row's comma separated courseIds cell.
func (r Row) CourseIDs() []string {
	var ids []string
	for _, id := range strings.Split(r["courseIds"], ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ValidateUsers checks every row and returns all failures. A nil ref skips
// the existing-email and course checks.
func ValidateUsers(rows []Row, ref *Reference) ValidationErrors {
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		if e := strings.ToLower(strings.TrimSpace(row["email"])); e != "" {
			counts[e]++
		}
	}

	var errs ValidationErrors
	for i, row := range rows {
		errs = append(errs, validateUser(i+2, row, counts, ref)...)
	}
	return errs
}

func validateUser(n int, row Row, counts map[string]int, ref *Reference) []RowError {
	var errs []RowError
	fail := func(format string, args ...any) {
		errs = append(errs, RowError{Row: n, Message: fmt.Sprintf(format, args...)})
	}

	for _, field := range requiredUserColumns {
		if strings.TrimSpace(row[field]) == "" {
			fail("Missing required field: %s", field)
		}
	}

	if email := strings.TrimSpace(row["email"]); email != "" {
		if validate.Var(email, "email") != nil {
			fail("Invalid email format")
		}
		lower := strings.ToLower(email)
		if counts[lower] > 1 {
			fail("Duplicate email in upload batch")
		}
		if ref != nil && ref.Emails[lower] {
			fail("Email already exists in the system")
		}
	}

	if pw := row["password"]; pw != "" && len([]rune(pw)) < MinPasswordLength {
		fail("Password must be at least %d characters", MinPasswordLength)
	}

	if role := strings.TrimSpace(row["role"]); role != "" && !oneOf(role, UserRoles) {
		fail("Invalid role. Must be one of: %s", strings.Join(UserRoles, ", "))
	}

	if bd := strings.TrimSpace(row["birthDate"]); bd != "" && validate.Var(bd, "datetime=2006-01-02") != nil {
		fail("Invalid birth date format (use YYYY-MM-DD)")
	}

	if status := strings.TrimSpace(row["status"]); status != "" && !oneOf(status, UserStatuses) {
		fail("Invalid status. Must be one of: %s", strings.Join(UserStatuses, ", "))
	}

	if ref != nil {
		for _, id := range row.CourseIDs() {
			cid, err := strconv.ParseInt(id, 10, 64)
			if err != nil || !ref.Courses[cid] {
				fail("Invalid course ID: %s", id)
			}
		}
	}

	return errs
}

func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(v)
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// UserUploader is the users endpoint surface an upload needs.
type UserUploader interface {
	UserDirectory
	BulkUpload(ctx context.Context, fileName string, csv []byte) (api.BulkUploadResult, error)
}

// SingleEnroller enrolls one user into one course.
type SingleEnroller interface {
	Enroll(ctx context.Context, courseID, userID int64) (api.Record, error)
}

// MessageSender creates a message.
type MessageSender interface {
	Create(ctx context.Context, body any) (api.Record, error)
}

// Uploader validates and submits bulk user files.
type Uploader struct {
	Users       UserUploader
	Courses     CourseCatalog
	Enrollments SingleEnroller
	Messages    MessageSender

	// Welcome sends each created user a welcome message.
	Welcome bool
}

// NewUploader wires an Uploader to svc.
func NewUploader(svc *api.Service) *Uploader {
	return &Uploader{
		Users:       svc.Users,
		Courses:     svc.Courses,
		Enrollments: svc.Enrollments,
		Messages:    svc.Messaging,
	}
}

// UploadReport describes a completed upload.
type UploadReport struct {
	Created  []api.User
	Count    int
	Errors   []string // rows the backend rejected
	Warnings []string // follow-up enrollments or messages that failed
}

// Summary returns a one-line description of the upload.
func (r *UploadReport) Summary() string {
	s := fmt.Sprintf("Successfully processed %d users", r.Count)
	if n := len(r.Errors) + len(r.Warnings); n > 0 {
		s += fmt.Sprintf(" (%d issue(s))", n)
	}
	return s
}

// Validate loads reference data and validates sheet without uploading it.
func (u *Uploader) Validate(ctx context.Context, sheet *Sheet) error {
	if sheet == nil || len(sheet.Rows) == 0 {
		return fileError(sheetName(sheet), "file is empty or improperly formatted", nil)
	}
	ref, err := LoadReference(ctx, u.Users, u.Courses)
	if err != nil {
		return err
	}
	if errs := ValidateUsers(sheet.Rows, ref); len(errs) > 0 {
		return errs
	}
	return nil
}

// Upload validates sheet, sends it as users.csv and then enrolls each created
// user in the courses listed on their row. Validation failures are returned
// as ValidationErrors and nothing is sent.
func (u *Uploader) Upload(ctx context.Context, sheet *Sheet) (*UploadReport, error) {
	if err := u.Validate(ctx, sheet); err != nil {
		return nil, err
	}

	header := sheet.Header
	if len(header) == 0 {
		header = UserColumns
	}
	data, err := RowsToCSV(header, sheet.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode users: %w", err)
	}

	res, err := u.Users.BulkUpload(ctx, "users.csv", data)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Upload failed"
		}
		if len(res.Errors) > 0 {
			msg += ": " + strings.Join(res.Errors, "; ")
		}
		return nil, fmt.Errorf("%s", msg)
	}

	report := &UploadReport{Created: res.CreatedUsers, Count: res.CreatedCount, Errors: res.Errors}
	report.Warnings = u.followUp(ctx, sheet.Rows, res.CreatedUsers)

	logging.Info("bulk user upload complete",
		zap.Int("created", report.Count),
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// followUp enrolls and greets created users. Failures become warnings.
func (u *Uploader) followUp(ctx context.Context, rows []Row, created []api.User) []string {
	byEmail := make(map[string]Row, len(rows))
	for _, row := range rows {
		byEmail[strings.ToLower(row["email"])] = row
	}

	var (
		mu       sync.Mutex
		warnings []string
	)
	warn := func(format string, args ...any) {
		mu.Lock()
		warnings = append(warnings, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(followUpConcurrency)
	for _, user := range created {
		row := byEmail[strings.ToLower(user.Email)]
		g.Go(func() error {
			if u.Enrollments != nil {
				for _, id := range row.CourseIDs() {
					cid, _ := strconv.ParseInt(id, 10, 64)
					if _, err := u.Enrollments.Enroll(ctx, cid, user.ID); err != nil {
						warn("%s: enrollment in course %s failed: %v", user.Email, id, err)
					}
				}
			}
			if u.Welcome && u.Messages != nil {
				if _, err := u.Messages.Create(ctx, WelcomeMessage(user, row["firstName"])); err != nil {
					warn("%s: welcome message failed: %v", user.Email, err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return warnings
}

// WelcomeMessage is the message body sent to a newly created account.
func WelcomeMessage(user api.User, firstName string) map[string]any {
	if firstName == "" {
		firstName = user.FirstName
	}
	return map[string]any{
		"recipient_id": user.ID,
		"subject":      "Welcome to Our Platform!",
		"content": fmt.Sprintf("Hello %s,\n\nWelcome to our platform! Your account has been created successfully.\n\n"+
			"Username: %s\n\nPlease login to get started.", firstName, user.Email),
		"type": "welcome",
	}
}

func sheetName(s *Sheet) string {
	if s == nil {
		return ""
	}
	return s.Name
}
