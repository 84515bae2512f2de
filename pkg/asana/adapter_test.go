package asana

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects/proj-1/sections":
			fmt.Fprint(w, `{"data":[
				{"gid":"s1","name":"Plan"},
				{"gid":"s2","name":"Execute"}
			],"next_page":null}`)
		case "/sections/s1/tasks":
			fmt.Fprint(w, `{"data":[
				{"gid":"t1","name":"Define measures","notes":"","completed":false,
				 "assignee":{"gid":"88","name":"Ada Mendez"},"num_subtasks":1,
				 "permalink_url":"https://app.asana.com/0/1/t1"},
				{"gid":"t2","name":"Collect inputs","due_on":"2026-02-14"}
			],"next_page":null}`)
		case "/sections/s2/tasks":
			fmt.Fprint(w, `{"data":[
				{"gid":"t3","name":"Run pilot","completed":true,"completed_at":"2026-02-10T16:04:05Z"}
			],"next_page":null}`)
		case "/tasks/t1/subtasks":
			fmt.Fprint(w, `{"data":[
				{"gid":"t1-1","name":"Draft baseline","parent":{"gid":"t1"}}
			],"next_page":null}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestBuildSnapshot(t *testing.T) {
	srv := snapshotServer(t)
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	snapshot, err := client.BuildSnapshot(context.Background(), "proj-1")
	require.NoError(t, err)

	require.Len(t, snapshot.Sections, 2)
	plan := snapshot.Sections[0]
	assert.Equal(t, "Plan", plan.Name)
	require.Len(t, plan.Tasks, 2)

	t1 := plan.Tasks[0]
	assert.Equal(t, "t1", t1.GID)
	assert.Equal(t, "88", t1.AssigneeGID)
	assert.Equal(t, "Ada Mendez", t1.AssigneeName)
	assert.Equal(t, "Plan", t1.SectionName)
	assert.Equal(t, "s1", t1.SectionGID)
	assert.Empty(t, t1.ParentGID)

	require.Len(t, t1.Subtasks, 1)
	sub := t1.Subtasks[0]
	assert.Equal(t, "t1-1", sub.GID)
	assert.Equal(t, "t1", sub.ParentGID)
	assert.Equal(t, "Plan", sub.SectionName, "subtasks inherit section provenance")

	t2 := plan.Tasks[1]
	require.NotNil(t, t2.DueOn)
	assert.Empty(t, t2.Subtasks, "no subtask fetch when num_subtasks is zero")

	execute := snapshot.Sections[1]
	require.Len(t, execute.Tasks, 1)
	assert.True(t, execute.Tasks[0].Completed)
	require.NotNil(t, execute.Tasks[0].CompletedAt)
}

func TestBuildSnapshotPropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/projects/proj-1/sections" {
			fmt.Fprint(w, `{"data":[{"gid":"s1","name":"Plan"}],"next_page":null}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"errors":[{"message":"Server error"}]}`)
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	_, err := client.BuildSnapshot(context.Background(), "proj-1")
	require.Error(t, err, "a failing task fetch aborts the whole snapshot")
}

func TestBuildSnapshotEmptyProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[],"next_page":null}`)
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	snapshot, err := client.BuildSnapshot(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Sections)
}
