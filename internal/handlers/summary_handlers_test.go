package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/supercur/supercur-api/internal/client/github"
	"github.com/supercur/supercur-api/internal/db"
	"github.com/supercur/supercur-api/internal/handlers"
	"github.com/supercur/supercur-api/internal/mocks"
	"github.com/supercur/supercur-api/internal/services"
)

type fakeCompletion struct {
	output string
	err    error
}

func (f *fakeCompletion) Complete(context.Context, string) (string, error) {
	return f.output, f.err
}

func newSummaryRouter(t *testing.T, githubURL string, comp *fakeCompletion) (*gin.Engine, *mocks.MockQuerier) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockQuerier := mocks.NewMockQuerier(ctrl)

	ghClient := github.NewClient(github.WithBaseURL(githubURL))
	common := handlers.NewCommonServices(
		services.NewAPIKeyService(mockQuerier, nil),
		services.NewSummaryService(ghClient, comp),
	)
	handler := handlers.NewSummaryHandler(common)

	router := gin.New()
	router.POST("/repo-summary", handler.Summarize)
	return router, mockQuerier
}

func githubStub(t *testing.T) *httptest.Server {
	t.Helper()
	description := "A terminal workspace manager"
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/mux", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(github.Repository{
			Name:            "mux",
			FullName:        "acme/mux",
			Description:     &description,
			StargazersCount: 900,
		})
	})
	mux.HandleFunc("/repos/acme/mux/readme", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"content":  base64.StdEncoding.EncodeToString([]byte("# mux\nManage terminal workspaces.")),
			"encoding": "base64",
		})
	})
	return httptest.NewServer(mux)
}

func summarizeRequest(key string, body interface{}) *http.Request {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/repo-summary", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	return req
}

func TestSummaryHandler_Summarize(t *testing.T) {
	ts := githubStub(t)
	defer ts.Close()

	key := "sk_" + uuid.New().String()
	record := db.ApiKey{ID: uuid.New(), Key: key, UserID: "user-1", Usage: 5, MonthlyLimit: 20}

	t.Run("happy path bills then summarizes", func(t *testing.T) {
		comp := &fakeCompletion{output: `{"summary": "Manages terminal workspaces.", "cool_facts": []}`}
		router, mockQuerier := newSummaryRouter(t, ts.URL, comp)

		gomock.InOrder(
			mockQuerier.EXPECT().GetAPIKeyByKey(gomock.Any(), key).Return(record, nil),
			mockQuerier.EXPECT().ReserveAPIKeyUsage(gomock.Any(), key).Return(int64(1), nil),
		)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, summarizeRequest(key, handlers.SummarizeRequest{GithubURL: "https://github.com/acme/mux"}))

		require.Equal(t, http.StatusOK, w.Code)
		var got services.SummaryResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Manages terminal workspaces.", got.Summary)
		require.NotNil(t, got.Repository)
		assert.Equal(t, "mux", got.Repository.Name)
		assert.Contains(t, w.Body.String(), `"stars":900`)
	})

	t.Run("missing API key", func(t *testing.T) {
		router, _ := newSummaryRouter(t, ts.URL, &fakeCompletion{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, summarizeRequest("", handlers.SummarizeRequest{GithubURL: "https://github.com/acme/mux"}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed API key is unauthorized, not a bad request", func(t *testing.T) {
		router, _ := newSummaryRouter(t, ts.URL, &fakeCompletion{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, summarizeRequest("sk_short", handlers.SummarizeRequest{GithubURL: "https://github.com/acme/mux"}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing body field", func(t *testing.T) {
		router, _ := newSummaryRouter(t, ts.URL, &fakeCompletion{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, summarizeRequest(key, map[string]string{}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("exhausted quota returns 429 and skips the fetch", func(t *testing.T) {
		exhausted := record
		exhausted.Usage = 20
		router, mockQuerier := newSummaryRouter(t, ts.URL, &fakeCompletion{})

		gomock.InOrder(
			mockQuerier.EXPECT().GetAPIKeyByKey(gomock.Any(), key).Return(exhausted, nil),
			mockQuerier.EXPECT().ReserveAPIKeyUsage(gomock.Any(), key).Return(int64(0), nil),
			mockQuerier.EXPECT().GetAPIKeyByKey(gomock.Any(), key).Return(exhausted, nil),
		)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, summarizeRequest(key, handlers.SummarizeRequest{GithubURL: "https://github.com/acme/mux"}))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("repository without a README returns 400", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/bare", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(github.Repository{Name: "bare", FullName: "acme/bare"})
		})
		mux.HandleFunc("/repos/acme/bare/readme", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
		})
		bare := httptest.NewServer(mux)
		defer bare.Close()

		router, mockQuerier := newSummaryRouter(t, bare.URL, &fakeCompletion{})

		gomock.InOrder(
			mockQuerier.EXPECT().GetAPIKeyByKey(gomock.Any(), key).Return(record, nil),
			mockQuerier.EXPECT().ReserveAPIKeyUsage(gomock.Any(), key).Return(int64(1), nil),
		)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, summarizeRequest(key, handlers.SummarizeRequest{GithubURL: "https://github.com/acme/bare"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed repository URL rejected before billing", func(t *testing.T) {
		router, _ := newSummaryRouter(t, ts.URL, &fakeCompletion{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, summarizeRequest(key, handlers.SummarizeRequest{GithubURL: "https://example.com/acme/mux"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("legacy X-API-Key header accepted", func(t *testing.T) {
		comp := &fakeCompletion{output: `{"summary": "ok", "cool_facts": []}`}
		router, mockQuerier := newSummaryRouter(t, ts.URL, comp)

		gomock.InOrder(
			mockQuerier.EXPECT().GetAPIKeyByKey(gomock.Any(), key).Return(record, nil),
			mockQuerier.EXPECT().ReserveAPIKeyUsage(gomock.Any(), key).Return(int64(1), nil),
		)

		req := summarizeRequest("", handlers.SummarizeRequest{GithubURL: "https://github.com/acme/mux"})
		req.Header.Set("X-API-Key", key)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
