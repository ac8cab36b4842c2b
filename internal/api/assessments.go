package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// AssessmentsAPI covers /assessments/api/.
type AssessmentsAPI struct {
	*Resource[Record]
	c *apiclient.Client

	Questions   *Resource[Record]
	Options     *Resource[Record]
	Submissions *Resource[Record]
	Rubrics     *Resource[Record]
}

func newAssessmentsAPI(c *apiclient.Client) *AssessmentsAPI {
	return &AssessmentsAPI{
		Resource:    newResource[Record](c, "/assessments/api/assessments/", false),
		c:           c,
		Questions:   newResource[Record](c, "/assessments/api/questions/", false),
		Options:     newResource[Record](c, "/assessments/api/options/", false),
		Submissions: newResource[Record](c, "/assessments/api/submissions/", false),
		Rubrics:     newResource[Record](c, "/assessments/api/rubrics/", false),
	}
}

// Ranking names the assessment ranking endpoints.
type Ranking string

const (
	MostAttempted  Ranking = "most_attempted"
	LeastAttempted Ranking = "least_attempted"
	HighestScoring Ranking = "highest_scoring"
	LowestScoring  Ranking = "lowest_scoring"
)

// Ranked returns assessments ordered by the given ranking.
func (a *AssessmentsAPI) Ranked(ctx context.Context, r Ranking) ([]Record, error) {
	return get[[]Record](ctx, a.c, a.Base+string(r)+"/", nil)
}

// BulkCreateQuestions adds several questions to an assessment at once.
func (a *AssessmentsAPI) BulkCreateQuestions(ctx context.Context, assessmentID int64, questions []Record) (Record, error) {
	return send[Record](ctx, a.c, http.MethodPost, "/assessments/api/questions/bulk/",
		map[string]any{"assessment": assessmentID, "questions": questions}, false)
}

// DeleteAllQuestions removes every question of an assessment.
func (a *AssessmentsAPI) DeleteAllQuestions(ctx context.Context, assessmentID int64) (Record, error) {
	return a.Action(ctx, assessmentID, "delete_all_questions", nil)
}

// DeleteAllRubrics removes every rubric of an assessment.
func (a *AssessmentsAPI) DeleteAllRubrics(ctx context.Context, assessmentID int64) (Record, error) {
	return a.Action(ctx, assessmentID, "delete_all_rubrics", nil)
}

// Grade records a manual grade for a submission.
func (a *AssessmentsAPI) Grade(ctx context.Context, submissionID int64, score float64, feedback string) (Record, error) {
	return a.Submissions.Action(ctx, submissionID, "grade", map[string]any{"score": score, "feedback": feedback})
}

// AutoGrade asks the backend to grade a submission automatically.
func (a *AssessmentsAPI) AutoGrade(ctx context.Context, submissionID int64) (Record, error) {
	return a.Submissions.Action(ctx, submissionID, "auto_grade", nil)
}

// BulkGrade grades several submissions; grades are {submission_id, score, feedback} records.
func (a *AssessmentsAPI) BulkGrade(ctx context.Context, grades []Record) (Record, error) {
	return send[Record](ctx, a.c, http.MethodPost, "/assessments/api/submissions/bulk_grade/", map[string]any{"grades": grades}, false)
}

// DownloadSubmission returns the raw submission file.
func (a *AssessmentsAPI) DownloadSubmission(ctx context.Context, submissionID int64) ([]byte, error) {
	resp, err := a.c.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/assessments/api/submissions/%d/download/", submissionID),
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// UploadAttachment attaches a file to an assessment.
func (a *AssessmentsAPI) UploadAttachment(ctx context.Context, assessmentID int64, file apiclient.Upload) (Record, error) {
	if file.Field == "" {
		file.Field = "file"
	}
	form := url.Values{"assessment": {fmt.Sprint(assessmentID)}}
	return sendMultipart[Record](ctx, a.c, http.MethodPost, "/assessments/api/attachments/", form, []apiclient.Upload{file}, false)
}

// DeleteAttachment removes an assessment attachment.
func (a *AssessmentsAPI) DeleteAttachment(ctx context.Context, attachmentID int64) error {
	return del(ctx, a.c, fmt.Sprintf("/assessments/api/attachments/%d/", attachmentID), false)
}
