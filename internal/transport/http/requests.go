package http

import "github.com/m-tereshkin/ticket-triage-service/internal/domain"

type ticketPayload struct {
	Key         string `json:"key" validate:"required,max=100"`
	Summary     string `json:"summary" validate:"required,max=500"`
	Description string `json:"description"`
	Self        string `json:"self" validate:"omitempty,url"`
	Assignees   string `json:"assignees"`
	Labels      string `json:"labels"`
}

func (p ticketPayload) toDomain() domain.TicketSnapshot {
	return domain.TicketSnapshot{
		Key:         p.Key,
		Summary:     p.Summary,
		Description: p.Description,
		Self:        p.Self,
		Assignees:   p.Assignees,
		Labels:      p.Labels,
	}
}

type repositoryTarget struct {
	Owner          string `json:"owner" validate:"required,gh_name,max=100"`
	Repo           string `json:"repo" validate:"required,gh_name,max=100"`
	AnalysisPrompt string `json:"analysis_prompt" validate:"required"`
}

type analyzeRepositoriesRequest struct {
	Ticket       ticketPayload      `json:"ticket" validate:"required"`
	Repositories []repositoryTarget `json:"repositories" validate:"required,min=1,dive"`
}

// analyzeTicketRequest is the webhook intake shape. Everything except
// the ticket key is optional; missing fields can be filled from the
// tracker lookup.
type analyzeTicketRequest struct {
	Key         string `json:"key" validate:"required,max=100"`
	Summary     string `json:"summary" validate:"max=500"`
	Description string `json:"description"`
	Self        string `json:"self" validate:"omitempty,url"`
	Assignees   string `json:"assignees"`
	Labels      string `json:"labels"`
}

func (p analyzeTicketRequest) toDomain() domain.TicketSnapshot {
	return domain.TicketSnapshot{
		Key:         p.Key,
		Summary:     p.Summary,
		Description: p.Description,
		Self:        p.Self,
		Assignees:   p.Assignees,
		Labels:      p.Labels,
	}
}

type analyzeResultRequest struct {
	Repository string `json:"repository" validate:"required,repo_name"`
	Report     string `json:"report" validate:"required"`
}
