package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	gh "github.com/google/go-github/v41/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-tereshkin/ticket-triage-service/internal/apperrors"
	"github.com/m-tereshkin/ticket-triage-service/internal/domain"
)

// newTestClient points the GitHub client at a local httptest server.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ghClient := gh.NewClient(nil)

	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	ghClient.BaseURL = baseURL

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	return &Client{client: ghClient, log: log}, server
}

func TestClient_CreateIssue_ComposesTitleAndBody(t *testing.T) {
	var received struct {
		Title     string   `json:"title"`
		Body      string   `json:"body"`
		Assignees []string `json:"assignees"`
		Labels    []string `json:"labels"`
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/repos/acme/core/issues", r.URL.Path)

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &received))

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number": 7, "html_url": "https://github.com/acme/core/issues/7"}`)
	})

	client, _ := newTestClient(t, handler)

	payload := domain.IssuePayload{
		Ticket: domain.TicketSnapshot{
			Key:     "PROJ-42",
			Summary: "Crash on startup",
			Self:    "https://tracker.example.com/browse/PROJ-42",
		},
		Body:      "## Focus\n\n**launch** code",
		Assignees: "alice, bob",
		Labels:    "bug,triage",
	}

	ref, err := client.CreateIssue(context.Background(), "acme", "core", payload, "req_abc")

	require.NoError(t, err)
	assert.Equal(t, 7, ref.Number)
	assert.Equal(t, "https://github.com/acme/core/issues/7", ref.HTMLURL)

	assert.Equal(t, "[PROJ-42] Crash on startup", received.Title)
	assert.Contains(t, received.Body, "## Ticket Link: [PROJ-42](https://tracker.example.com/browse/PROJ-42)")
	assert.Contains(t, received.Body, "## Focus\n\n**launch** code")
	assert.Contains(t, received.Body, "@analyze: req_abc")
	assert.Equal(t, []string{"alice", "bob"}, received.Assignees)
	assert.Equal(t, []string{"bug", "triage"}, received.Labels)
}

func TestClient_CreateIssue_GatewayError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message": "Validation Failed"}`)
	})

	client, _ := newTestClient(t, handler)

	ref, err := client.CreateIssue(context.Background(), "acme", "core", domain.IssuePayload{}, "req_abc")

	assert.Nil(t, ref)
	require.Error(t, err)

	var gwErr *apperrors.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnprocessableEntity, gwErr.StatusCode)
	assert.ErrorIs(t, err, apperrors.ErrGateway)
}

func TestClient_GetIssue(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/core/issues/12", r.URL.Path)
		fmt.Fprint(w, `{"number": 12, "title": "[PROJ-1] Crash", "state": "open", "html_url": "https://github.com/acme/core/issues/12"}`)
	})

	client, _ := newTestClient(t, handler)

	issue, err := client.GetIssue(context.Background(), "acme", "core", 12)

	require.NoError(t, err)
	assert.Equal(t, 12, issue.Number)
	assert.Equal(t, "[PROJ-1] Crash", issue.Title)
	assert.Equal(t, "open", issue.State)
}

func TestClient_GetIssueByURL(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/core/issues/12", r.URL.Path)
		fmt.Fprint(w, `{"number": 12, "html_url": "https://github.com/acme/core/issues/12"}`)
	})

	client, _ := newTestClient(t, handler)

	issue, err := client.GetIssueByURL(context.Background(), "https://github.com/acme/core/issues/12")

	require.NoError(t, err)
	assert.Equal(t, 12, issue.Number)
}

func TestClient_GetIssueByURL_Unrecognized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected for an unrecognized url")
	}))

	issue, err := client.GetIssueByURL(context.Background(), "https://example.com/not-an-issue")

	assert.Nil(t, issue)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList("a, b ,c"))
	assert.Equal(t, []string{"solo"}, splitList("solo"))
	assert.Empty(t, splitList(" , ,"))
}
