package asana

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSectionsPaginated(t *testing.T) {
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		require.Equal(t, "/projects/proj-1/sections", r.URL.Path)

		if r.URL.Query().Get("offset") == "" {
			fmt.Fprint(w, `{"data":[{"gid":"s1","name":"Plan"}],"next_page":{"offset":"tok-2"}}`)
			return
		}
		require.Equal(t, "tok-2", r.URL.Query().Get("offset"))
		fmt.Fprint(w, `{"data":[{"gid":"s2","name":"Execute"}],"next_page":null}`)
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL), WithPageSize(1))
	sections, err := client.ListSections(context.Background(), "proj-1")
	require.NoError(t, err)

	require.Len(t, sections, 2)
	assert.Equal(t, "Plan", sections[0].Name)
	assert.Equal(t, "Execute", sections[1].Name)
	assert.Equal(t, "Bearer test-token", authHeader)
}

func TestListSectionTasksSetsOptFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sections/s1/tasks", r.URL.Path)
		assert.Equal(t, taskOptFields, r.URL.Query().Get("opt_fields"))
		fmt.Fprint(w, `{"data":[{"gid":"t1","name":"Collect inputs","due_on":"2026-02-14"}],"next_page":null}`)
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	tasks, err := client.ListSectionTasks(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Collect inputs", tasks[0].Name)
	require.NotNil(t, tasks[0].DueOn)
}

func TestAPIErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"errors":[{"message":"Not authorized to access this project"}]}`)
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	_, err := client.ListSections(context.Background(), "proj-1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Not authorized to access this project", apiErr.Message)
}

func TestGetUserEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/88":
			fmt.Fprint(w, `{"data":{"gid":"88","name":"Ada Mendez","email":"ada@example.org"}}`)
		case "/users/99":
			fmt.Fprint(w, `{"data":{"gid":"99","name":"No Email"}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))

	email, err := client.GetUserEmail(context.Background(), "88")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.org", email)

	_, err = client.GetUserEmail(context.Background(), "99")
	assert.Error(t, err, "hidden email resolves to an error, not an empty string")
}
