package ingestion

import "fmt"

// maxReportErrors bounds the error list in a report so a large failing
// batch cannot produce an unbounded response body.
const maxReportErrors = 25

// Report summarizes one ingestion run. Duplicates are counted separately:
// a record skipped for an already-stored URL is neither ingested nor
// failed.
type Report struct {
	Fetched    int      `json:"fetched"`
	Ingested   int      `json:"ingested"`
	Failed     int      `json:"failed"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors,omitempty"`
	Message    string   `json:"message"`
}

// addError records a per-record failure, truncating the list once it
// reaches the cap.
func (r *Report) addError(msg string) {
	r.Failed++
	if len(r.Errors) < maxReportErrors {
		r.Errors = append(r.Errors, msg)
		return
	}
	if len(r.Errors) == maxReportErrors {
		r.Errors = append(r.Errors, "")
	}
	r.Errors[maxReportErrors] = fmt.Sprintf("...and %d more errors", r.Failed-maxReportErrors)
}

func (r *Report) finalize() {
	r.Message = fmt.Sprintf("ingested %d of %d records (%d failed, %d duplicates)",
		r.Ingested, r.Fetched, r.Failed, r.Duplicates)
}
