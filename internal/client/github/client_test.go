package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supercur/supercur-api/internal/apierror"
	"github.com/supercur/supercur-api/internal/client/github"
	"github.com/supercur/supercur-api/internal/logger"
)

func init() {
	logger.InitLogger(logger.StageLocal)
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    github.Repo
		wantErr bool
	}{
		{
			name: "plain repository URL",
			url:  "https://github.com/golang/go",
			want: github.Repo{Owner: "golang", Name: "go"},
		},
		{
			name: "www host",
			url:  "https://www.github.com/golang/go",
			want: github.Repo{Owner: "golang", Name: "go"},
		},
		{
			name: "clone URL with .git suffix",
			url:  "https://github.com/golang/go.git",
			want: github.Repo{Owner: "golang", Name: "go"},
		},
		{
			name: "deep link keeps owner and repo",
			url:  "https://github.com/golang/go/tree/master/src",
			want: github.Repo{Owner: "golang", Name: "go"},
		},
		{
			name: "trailing slash",
			url:  "https://github.com/golang/go/",
			want: github.Repo{Owner: "golang", Name: "go"},
		},
		{
			name:    "wrong host rejected",
			url:     "https://example.com/golang/go",
			wantErr: true,
		},
		{
			name:    "gitlab host rejected",
			url:     "https://gitlab.com/golang/go",
			wantErr: true,
		},
		{
			name:    "owner without repository",
			url:     "https://github.com/golang",
			wantErr: true,
		},
		{
			name:    "bare host",
			url:     "https://github.com/",
			wantErr: true,
		},
		{
			name:    "not a URL at all",
			url:     "://nope",
			wantErr: true,
		},
		{
			name:    "empty string",
			url:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := github.ParseRepoURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apierror.IsKind(err, apierror.KindMalformedRepoURL))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, repo)
		})
	}
}

func TestClient_Fetch(t *testing.T) {
	description := "The Go programming language"
	var repoCalls, readmeCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/golang/go", func(w http.ResponseWriter, r *http.Request) {
		repoCalls.Add(1)
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		_ = json.NewEncoder(w).Encode(github.Repository{
			Name:            "go",
			FullName:        "golang/go",
			Description:     &description,
			StargazersCount: 120000,
			Topics:          []string{"go", "language"},
		})
	})
	mux.HandleFunc("/repos/golang/go/readme", func(w http.ResponseWriter, r *http.Request) {
		readmeCalls.Add(1)
		// GitHub wraps base64 payloads with newlines.
		encoded := base64.StdEncoding.EncodeToString([]byte("# The Go Programming Language\n"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"content":  encoded[:20] + "\n" + encoded[20:],
			"encoding": "base64",
		})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := github.NewClient(github.WithBaseURL(ts.URL))

	content, err := client.Fetch(context.Background(), github.Repo{Owner: "golang", Name: "go"})
	require.NoError(t, err)
	require.NotNil(t, content.Repository)
	assert.Equal(t, "golang/go", content.Repository.FullName)
	assert.Equal(t, 120000, content.Repository.StargazersCount)
	assert.Equal(t, "# The Go Programming Language\n", content.Readme)
	assert.Equal(t, int32(1), repoCalls.Load())
	assert.Equal(t, int32(1), readmeCalls.Load())
}

func TestClient_Fetch_UpstreamStatusPassthrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/nobody/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/repos/nobody/missing/readme", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"content": "", "encoding": "none"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := github.NewClient(github.WithBaseURL(ts.URL))

	_, err := client.GetRepository(context.Background(), github.Repo{Owner: "nobody", Name: "missing"})
	require.Error(t, err)
	require.True(t, apierror.IsKind(err, apierror.KindUpstreamFetchFailed))

	apiErr := apierror.FromError(err)
	assert.Equal(t, http.StatusNotFound, apiErr.UpstreamStatus)
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus())
}

func TestClient_Fetch_MissingReadmeIsBadRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/bare", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(github.Repository{Name: "bare", FullName: "acme/bare"})
	})
	mux.HandleFunc("/repos/acme/bare/readme", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := github.NewClient(github.WithBaseURL(ts.URL))

	_, err := client.Fetch(context.Background(), github.Repo{Owner: "acme", Name: "bare"})
	require.Error(t, err)
	require.True(t, apierror.IsKind(err, apierror.KindMalformedRepoURL))
	assert.Equal(t, http.StatusBadRequest, apierror.FromError(err).HTTPStatus())
}

func TestClient_TokenHeader(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/private", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(github.Repository{FullName: "acme/private"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := github.NewClient(github.WithBaseURL(ts.URL), github.WithToken("ghp_testtoken"))

	_, err := client.GetRepository(context.Background(), github.Repo{Owner: "acme", Name: "private"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer ghp_testtoken", gotAuth)
}
