package jobwire

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew_NoBaseURL(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Fatal("expected error when no base URL provided")
	}
}

func TestSearch_SendsQueryAndAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/search" {
			t.Errorf("request: got %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("auth: got %q", auth)
		}

		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "data engineering" {
			t.Errorf("query: got %q", req.Query)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"jobs": [{"id": "job-1", "title": "Data Engineer", "similarity": 0.88}],
			"events": []
		}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithAPIKey("secret"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Search(context.Background(), "data engineering")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Jobs) != 1 || result.Jobs[0].Score != 0.88 {
		t.Errorf("jobs: got %+v", result.Jobs)
	}
	if len(result.Events) != 0 {
		t.Errorf("events: got %+v", result.Events)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code": "not_found", "message": "not found"}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.GetJob(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error: got %v, want ErrNotFound", err)
	}
}

func TestApply_MapsConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/job-1/applications" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code": "already_exists", "message": "already exists"}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Apply(context.Background(), "job-1", "stu-1", "")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("error: got %v, want ErrAlreadyExists", err)
	}
}

func TestListJobs_PageQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("offset"); got != "10" {
			t.Errorf("offset: got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [{"id": "job-1"}], "total": 11}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	jobs, total, err := client.ListJobs(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 || total != 11 {
		t.Errorf("page: got %d jobs, total %d", len(jobs), total)
	}
}

func TestEmbed_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"code": "embedding_quota_exceeded", "message": "embedding quota exceeded"}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Embed(context.Background(), "some text", "")
	if !errors.Is(err, ErrEmbeddingQuotaExceeded) {
		t.Errorf("error: got %v, want ErrEmbeddingQuotaExceeded", err)
	}
}

func TestDeleteJob_NoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method: got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.DeleteJob(context.Background(), "job-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
