package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Flex decodes a JSON string, number or null into a string. The backend
// serialises decimals (prices) as strings and some durations as numbers.
type Flex string

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flex) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Flex(s)
		return nil
	}
	*f = Flex(string(b))
	return nil
}

// Float parses f as a float64 (0 when empty or invalid).
func (f Flex) Float() float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	return v
}

// User is an account as returned by /users/api/users/.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	Status     string `json:"status,omitempty"`
	IsActive   bool   `json:"is_active"`
	Phone      string `json:"phone,omitempty"`
	DateJoined string `json:"date_joined,omitempty"`
	LastLogin  string `json:"last_login,omitempty"`
}

// FullName returns "First Last" or the email when both are empty.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Category is a course category.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Course is a course as returned by /courses/courses/.
type Course struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Code               string    `json:"code"`
	Description        string    `json:"description"`
	Category           *Category `json:"category,omitempty"`
	CategoryID         int64     `json:"category_id,omitempty"`
	Level              string    `json:"level"`
	Status             string    `json:"status"`
	Duration           Flex      `json:"duration,omitempty"`
	Price              Flex      `json:"price,omitempty"`
	DiscountPrice      Flex      `json:"discount_price,omitempty"`
	Currency           string    `json:"currency,omitempty"`
	Thumbnail          string    `json:"thumbnail,omitempty"`
	LearningOutcomes   []string  `json:"learning_outcomes,omitempty"`
	Prerequisites      []string  `json:"prerequisites,omitempty"`
	CertificateEnabled bool      `json:"certificate_enabled,omitempty"`
	SCORMEnabled       bool      `json:"scorm_enabled,omitempty"`
	TotalStudents      int       `json:"total_students,omitempty"`
	CreatedAt          string    `json:"created_at,omitempty"`
	UpdatedAt          string    `json:"updated_at,omitempty"`
}

// CategoryName returns the category name or "" when uncategorised.
func (c Course) CategoryName() string {
	if c.Category == nil {
		return ""
	}
	return c.Category.Name
}

// Module is a course module.
type Module struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	IsPublished bool   `json:"is_published,omitempty"`
}

// Lesson is a lesson within a module.
type Lesson struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	LessonType string `json:"lesson_type,omitempty"`
	Content    string `json:"content,omitempty"`
	Duration   Flex   `json:"duration,omitempty"`
	Order      int    `json:"order"`
}

// CourseResource is a downloadable or linked course resource.
type CourseResource struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	ResourceType string `json:"resource_type"`
	URL          string `json:"url,omitempty"`
	File         string `json:"file,omitempty"`
	Order        int    `json:"order"`
}

// BulkEnrollResult is the response of the bulk enrollment endpoints.
type BulkEnrollResult struct {
	Created         int    `json:"created"`
	AlreadyEnrolled int    `json:"already_enrolled"`
	Message         string `json:"message,omitempty"`
}

// Activity is one entry of the user activity log.
type Activity struct {
	ID           int64     `json:"id"`
	User         string    `json:"user"`
	ActivityType string    `json:"activity_type"`
	Timestamp    time.Time `json:"timestamp"`
	Details      string    `json:"details,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
}

// activityVerbs are the phrases used for well-known activity types.
var activityVerbs = map[string]string{
	"login":           "logged in",
	"logout":          "logged out",
	"password_change": "changed their password",
	"profile_update":  "updated their profile",
	"system":          "triggered a system event",
}

// Verb returns a human phrase for the activity type ("logged in").
// Unknown types have underscores replaced by spaces.
func (a Activity) Verb() string {
	if v, ok := activityVerbs[a.ActivityType]; ok {
		return v
	}
	return strings.ToLower(strings.ReplaceAll(a.ActivityType, "_", " "))
}

// BulkUploadResult is the response of /users/api/users/bulk_upload/.
type BulkUploadResult struct {
	Success      bool     `json:"success"`
	CreatedCount int      `json:"created_count"`
	CreatedUsers []User   `json:"created_users,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Message      string   `json:"message,omitempty"`
}
