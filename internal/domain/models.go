package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of an analysis request.
type RequestStatus string

const (
	StatusProcessing RequestStatus = "processing"
	StatusCompleted  RequestStatus = "completed"
	StatusFailed     RequestStatus = "failed"
)

// TicketSnapshot is the immutable copy of the tracker ticket taken at
// request-creation time.
type TicketSnapshot struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Self        string `json:"self"`
	Assignees   string `json:"assignees,omitempty"`
	Labels      string `json:"labels,omitempty"`
}

// RepoResult is the per-repository slot of an analysis request. One
// entry exists per selected repository, created together with the
// record; entries are updated in place and never removed.
type RepoResult struct {
	Repository   string   `json:"repository"`
	Score        string   `json:"score"`
	RelatedFiles []string `json:"related_files"`
	Analysis     string   `json:"analysis"`
	IssueNumber  int      `json:"issue_number"`
	IssueURL     string   `json:"issue_url"`
}

// RepoResults is stored as a single jsonb column.
type RepoResults []RepoResult

// AnalysisRequest is the persisted record created once per inbound
// ticket and reconciled later with asynchronous analysis reports.
type AnalysisRequest struct {
	ID            int64          `db:"id"`
	RequestID     string         `db:"request_id"`
	TicketKey     string         `db:"ticket_key"`
	TicketContext TicketSnapshot `db:"ticket_context"`
	RepoResults   RepoResults    `db:"repo_results"`
	Status        RequestStatus  `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// FindRepoResult returns the entry whose repository equals fullName
// ("owner/repo"), or nil if the record has no such entry.
func (r *AnalysisRequest) FindRepoResult(fullName string) *RepoResult {
	for i := range r.RepoResults {
		if r.RepoResults[i].Repository == fullName {
			return &r.RepoResults[i]
		}
	}

	return nil
}

// RepoTarget identifies one repository to analyze, with the prompt the
// external reviewer runs against it.
type RepoTarget struct {
	Owner          string
	Repo           string
	AnalysisPrompt string
}

// FullName returns the "owner/repo" form used as the natural key in
// RepoResult entries.
func (t RepoTarget) FullName() string {
	return t.Owner + "/" + t.Repo
}

// IssuePayload carries everything the issue gateway needs to open a
// tracking issue. Body is already rendered to Markdown.
type IssuePayload struct {
	Ticket    TicketSnapshot
	Body      string
	Assignees string // comma-separated, optional
	Labels    string // comma-separated, optional
	Milestone int    // optional, 0 means unset
}

// IssueRef identifies a created tracking issue.
type IssueRef struct {
	Number  int
	HTMLURL string
}

// Issue is the read model returned by the gateway lookups.
type Issue struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	State   string `json:"state"`
	HTMLURL string `json:"html_url"`
}

// AnalysisResult is the aggregate returned by the create workflow.
// Scores are filled in later by reconciliation, not here.
type AnalysisResult struct {
	RequestID   string        `json:"request_id"`
	TicketKey   string        `json:"ticket_key"`
	RepoResults []RepoResult  `json:"repository_results"`
	Status      RequestStatus `json:"status"`
}

// ReconciliationSummary is the caller-facing response of the
// reconciliation workflow. It is derived from the submitted report and
// the extraction, not from the stored record.
type ReconciliationSummary struct {
	Repository   string   `json:"repository"`
	IssueNumber  int      `json:"issue_number"`
	Score        string   `json:"relevance_score"`
	RelatedFiles []string `json:"related_files"`
	IssueURL     string   `json:"issue_url"`
}

// Value implements driver.Valuer so the snapshot can be stored in a
// jsonb column.
func (s TicketSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for jsonb columns.
func (s *TicketSnapshot) Scan(src interface{}) error {
	return scanJSON(src, s)
}

func (r RepoResults) Value() (driver.Value, error) {
	if r == nil {
		return json.Marshal(RepoResults{})
	}

	return json.Marshal(r)
}

func (r *RepoResults) Scan(src interface{}) error {
	return scanJSON(src, r)
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
