package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// CoursesAPI covers /courses/: categories, courses and their content.
type CoursesAPI struct {
	*Resource[Course]
	c *apiclient.Client

	Categories    *Resource[Category]
	Modules       *Resource[Module]
	LearningPaths *Resource[Record]
	FAQs          *Resource[Record]
}

func newCoursesAPI(c *apiclient.Client) *CoursesAPI {
	return &CoursesAPI{
		Resource:      newResource[Course](c, "/courses/courses/", true),
		c:             c,
		Categories:    newResource[Category](c, "/courses/categories/", true),
		Modules:       newResource[Module](c, "/courses/modules/", false),
		LearningPaths: newResource[Record](c, "/courses/learning-paths/", false),
		FAQs:          newResource[Record](c, "/courses/faqs/", false),
	}
}

// All fetches the whole catalogue the way the course list screen does
// (one request with a large page size), applying any server-side filters.
func (cs *CoursesAPI) All(ctx context.Context, search, category, level string) ([]Course, error) {
	p := ListParams{Page: 1, PageSize: 1000, Search: search, Filters: map[string]string{
		"category": category,
		"level":    level,
	}}
	page, err := cs.List(ctx, p)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// CreateWithThumbnail posts a course as multipart with a thumbnail file.
// Repeated keys in form (learning_outcomes, prerequisites) are sent as
// repeated fields.
func (cs *CoursesAPI) CreateWithThumbnail(ctx context.Context, form url.Values, thumb apiclient.Upload) (Course, error) {
	if thumb.Field == "" {
		thumb.Field = "thumbnail"
	}
	return sendMultipart[Course](ctx, cs.c, http.MethodPost, cs.Base, form, []apiclient.Upload{thumb}, true)
}

// MostPopular returns courses ranked by enrollments.
func (cs *CoursesAPI) MostPopular(ctx context.Context) ([]Course, error) {
	return get[[]Course](ctx, cs.c, "/courses/courses/most_popular/", nil)
}

// LeastPopular returns the least enrolled courses.
func (cs *CoursesAPI) LeastPopular(ctx context.Context) ([]Course, error) {
	return get[[]Course](ctx, cs.c, "/courses/courses/least_popular/", nil)
}

// CourseModules lists the modules of a course.
func (cs *CoursesAPI) CourseModules(ctx context.Context, courseID int64) ([]Module, error) {
	return get[[]Module](ctx, cs.c, "/courses/modules/", url.Values{"course": {strconv.FormatInt(courseID, 10)}})
}

// Lessons lists the lessons of a module.
func (cs *CoursesAPI) Lessons(ctx context.Context, moduleID int64) ([]Lesson, error) {
	return get[[]Lesson](ctx, cs.c, fmt.Sprintf("/courses/modules/%d/lessons/", moduleID), nil)
}

// CreateLesson adds a lesson to a module. Lessons are always multipart since
// they may carry a content file.
func (cs *CoursesAPI) CreateLesson(ctx context.Context, moduleID int64, form url.Values, uploads []apiclient.Upload) (Lesson, error) {
	return sendMultipart[Lesson](ctx, cs.c, http.MethodPost, fmt.Sprintf("/courses/modules/%d/lessons/", moduleID), form, uploads, false)
}

// UpdateLesson modifies a lesson.
func (cs *CoursesAPI) UpdateLesson(ctx context.Context, moduleID, lessonID int64, form url.Values, uploads []apiclient.Upload) (Lesson, error) {
	return sendMultipart[Lesson](ctx, cs.c, http.MethodPatch, fmt.Sprintf("/courses/modules/%d/lessons/%d/", moduleID, lessonID), form, uploads, false)
}

// DeleteLesson removes a lesson.
func (cs *CoursesAPI) DeleteLesson(ctx context.Context, moduleID, lessonID int64) error {
	return del(ctx, cs.c, fmt.Sprintf("/courses/modules/%d/lessons/%d/", moduleID, lessonID), false)
}

// Resources lists the resources of a course.
func (cs *CoursesAPI) Resources(ctx context.Context, courseID int64) ([]CourseResource, error) {
	return get[[]CourseResource](ctx, cs.c, fmt.Sprintf("/courses/courses/%d/resources/", courseID), nil)
}

// CreateResource adds a resource (multipart, optional file).
func (cs *CoursesAPI) CreateResource(ctx context.Context, courseID int64, form url.Values, uploads []apiclient.Upload) (CourseResource, error) {
	return sendMultipart[CourseResource](ctx, cs.c, http.MethodPost, fmt.Sprintf("/courses/courses/%d/resources/", courseID), form, uploads, false)
}

// DeleteResource removes a resource.
func (cs *CoursesAPI) DeleteResource(ctx context.Context, courseID, resourceID int64) error {
	return del(ctx, cs.c, fmt.Sprintf("/courses/courses/%d/resources/%d/", courseID, resourceID), false)
}

// Ratings lists the ratings of a course.
func (cs *CoursesAPI) Ratings(ctx context.Context, courseID int64) ([]Record, error) {
	return get[[]Record](ctx, cs.c, fmt.Sprintf("/courses/ratings/course/%d/", courseID), nil)
}

// Rate adds the caller's rating to a course.
func (cs *CoursesAPI) Rate(ctx context.Context, courseID int64, rating int, review string) (Record, error) {
	return send[Record](ctx, cs.c, http.MethodPost, fmt.Sprintf("/courses/ratings/course/%d/", courseID),
		map[string]any{"rating": rating, "review": review}, false)
}

// CourseFAQs lists the FAQs of a course.
func (cs *CoursesAPI) CourseFAQs(ctx context.Context, courseID int64) ([]Record, error) {
	return get[[]Record](ctx, cs.c, "/courses/faqs/", url.Values{"course": {strconv.FormatInt(courseID, 10)}})
}

// ReorderFAQs sets the display order of a course's FAQs.
func (cs *CoursesAPI) ReorderFAQs(ctx context.Context, courseID int64, faqIDs []int64) (Record, error) {
	return send[Record](ctx, cs.c, http.MethodPost, "/courses/faqs/reorder/",
		map[string]any{"course_id": courseID, "faq_ids": faqIDs}, false)
}

// CertificateSettings returns a course's certificate configuration.
func (cs *CoursesAPI) CertificateSettings(ctx context.Context, courseID int64) (Record, error) {
	return get[Record](ctx, cs.c, fmt.Sprintf("/courses/certificates/course/%d/", courseID), nil)
}

// UpdateCertificateSettings replaces a course's certificate configuration.
func (cs *CoursesAPI) UpdateCertificateSettings(ctx context.Context, courseID int64, body any) (Record, error) {
	return send[Record](ctx, cs.c, http.MethodPut, fmt.Sprintf("/courses/certificates/course/%d/", courseID), body, false)
}

// EnrollmentsAPI covers /courses/enrollments/.
type EnrollmentsAPI struct {
	c *apiclient.Client
}

// Enroll enrolls one user in a course on the admin's behalf.
func (e *EnrollmentsAPI) Enroll(ctx context.Context, courseID, userID int64) (Record, error) {
	return send[Record](ctx, e.c, http.MethodPost, fmt.Sprintf("/courses/enrollments/course/%d/", courseID),
		map[string]int64{"user_id": userID}, false)
}

// BulkEnroll enrolls several users through the course-scoped bulk route.
func (e *EnrollmentsAPI) BulkEnroll(ctx context.Context, courseID int64, userIDs []int64) (BulkEnrollResult, error) {
	return send[BulkEnrollResult](ctx, e.c, http.MethodPost, fmt.Sprintf("/courses/enrollments/course/%d/bulk/", courseID),
		map[string]any{"user_ids": userIDs}, false)
}

// AdminBulkEnrollCourse enrolls users through the admin bulk route used by
// file-based enrollment.
func (e *EnrollmentsAPI) AdminBulkEnrollCourse(ctx context.Context, courseID int64, userIDs []int64) (BulkEnrollResult, error) {
	return send[BulkEnrollResult](ctx, e.c, http.MethodPost, fmt.Sprintf("/courses/enrollments/course/%d/admin_bulk_enroll/", courseID),
		map[string]any{"user_ids": userIDs}, false)
}

// SelfEnroll enrolls the caller.
func (e *EnrollmentsAPI) SelfEnroll(ctx context.Context, courseID int64) (Record, error) {
	return send[Record](ctx, e.c, http.MethodPost, fmt.Sprintf("/courses/enrollments/self-enroll/%d/", courseID), map[string]any{}, false)
}

// All lists every enrollment.
func (e *EnrollmentsAPI) All(ctx context.Context, p ListParams) (*apiclient.Page[Record], error) {
	return getPage[Record](ctx, e.c, "/courses/enrollments/all_enrollments/", p.Values())
}

// ForUser lists a user's enrollments.
func (e *EnrollmentsAPI) ForUser(ctx context.Context, userID int64) ([]Record, error) {
	return get[[]Record](ctx, e.c, fmt.Sprintf("/courses/enrollments/user_enrollments/%d/", userID), nil)
}

// ForCourse lists a course's enrollments.
func (e *EnrollmentsAPI) ForCourse(ctx context.Context, courseID int64) ([]Record, error) {
	return get[[]Record](ctx, e.c, fmt.Sprintf("/courses/enrollments/course-enrollments/%d/", courseID), nil)
}

// Delete removes an enrollment.
func (e *EnrollmentsAPI) Delete(ctx context.Context, enrollmentID int64) error {
	return del(ctx, e.c, fmt.Sprintf("/courses/enrollments/%d/", enrollmentID), false)
}
