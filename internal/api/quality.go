package api

import (
	"context"
	"fmt"
	"sort"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// QualityKinds maps each quality-assurance record kind to its collection path.
var QualityKinds = map[string]string{
	"qualifications":     "/quality/api/qualifications/",
	"assessors":          "/quality/api/assessors/",
	"iqas":               "/quality/api/iqas/",
	"eqas":               "/quality/api/eqas/",
	"learners":           "/quality/api/learners/",
	"assessments":        "/quality/api/assessments/",
	"iqa-samples":        "/quality/api/iqa-samples/",
	"iqa-sampling-plans": "/quality/api/iqa-sampling-plans/",
	"eqa-visits":         "/quality/api/eqa-visits/",
	"eqa-samples":        "/quality/api/eqa-samples/",
}

// QualityAPI covers the IQA/EQA workflow records.
type QualityAPI struct {
	c     *apiclient.Client
	kinds map[string]*Resource[Record]
}

func newQualityAPI(c *apiclient.Client) *QualityAPI {
	q := &QualityAPI{c: c, kinds: make(map[string]*Resource[Record], len(QualityKinds))}
	for kind, base := range QualityKinds {
		q.kinds[kind] = newResource[Record](c, base, false)
	}
	return q
}

// Kinds returns the known record kinds, sorted.
func (q *QualityAPI) Kinds() []string {
	kinds := make([]string, 0, len(q.kinds))
	for k := range q.kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Kind returns the CRUD resource for a record kind.
func (q *QualityAPI) Kind(kind string) (*Resource[Record], error) {
	r, ok := q.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown quality record kind %q", kind)
	}
	return r, nil
}

// Dashboard returns the quality-assurance summary counts.
func (q *QualityAPI) Dashboard(ctx context.Context) (Record, error) {
	return get[Record](ctx, q.c, "/quality/api/dashboard/", nil)
}
