package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gearledger/domain"
	"gearledger/interfaces/mock"
	"gearledger/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	e       *echo.Echo
	handler *HTTPServer
	sync    *service.Sync
	roster  *service.Roster
	store   *mock.ResultStoreMock
}

func newTestServer(t *testing.T, store *mock.ResultStoreMock) *testServer {
	t.Helper()
	logger := log.NewNopLogger()

	e := echo.New()
	e.HideBanner = true
	service.RegisterErrorHandler(e, logger)

	syn := service.NewSync(store, service.NewHub(logger), nil, logger)
	roster := service.NewRoster(time.Minute, time.Minute, nil, logger)
	h := NewHTTPServer(syn, roster, "bench-1", logger)
	h.Register(e)

	return &testServer{e: e, handler: h, sync: syn, roster: roster, store: store}
}

func (ts *testServer) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doJSON(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return ts.do(method, target, r, echo.MIMEApplicationJSON)
}

type errEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errEnvelope {
	t.Helper()
	var env errEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t, &mock.ResultStoreMock{})

	rec := ts.doJSON(http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status domain.ServerStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "bench-1", status.Name)
}

func TestSyncVersion_RegistersCaller(t *testing.T) {
	ts := newTestServer(t, &mock.ResultStoreMock{})

	require.Equal(t, 0, ts.roster.Count())

	rec := ts.doJSON(http.MethodGet, "/api/sync/version", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(0), resp.Version)
	assert.Equal(t, 1, ts.roster.Count())
}

func TestSubmitResult(t *testing.T) {
	store := &mock.ResultStoreMock{
		UpsertResultFunc: func(ctx context.Context, in domain.ResultInput) (domain.Result, error) {
			return domain.Result{ID: 1, Artikul: in.Artikul, Client: in.Client, Quantity: in.Quantity}, nil
		},
	}
	ts := newTestServer(t, store)

	rec := ts.doJSON(http.MethodPost, "/api/results", `{"artikul":"PK-5396","client":"Acme","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Result.ID)
	assert.Equal(t, "PK-5396", resp.Result.Artikul)
	assert.Equal(t, int64(1), resp.Version)

	require.Len(t, store.UpsertResultCalls(), 1)
	assert.Equal(t, 2, store.UpsertResultCalls()[0].In.Quantity)
}

func TestSubmitResult_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing artikul", body: `{"client":"Acme","quantity":1}`},
		{name: "missing client", body: `{"artikul":"PK-5396","quantity":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &mock.ResultStoreMock{})

			rec := ts.doJSON(http.MethodPost, "/api/results", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, service.ErrBadParameter, decodeError(t, rec).Error.Code)
			assert.Empty(t, ts.store.UpsertResultCalls())
		})
	}
}

func TestListResults_PassesClientFilter(t *testing.T) {
	store := &mock.ResultStoreMock{
		ListResultsFunc: func(ctx context.Context, client string) ([]domain.Result, error) {
			return []domain.Result{{ID: 1, Artikul: "A-1", Client: "acme"}}, nil
		},
	}
	ts := newTestServer(t, store)

	rec := ts.doJSON(http.MethodGet, "/api/results?client=acme", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)

	require.Len(t, store.ListResultsCalls(), 1)
	assert.Equal(t, "acme", store.ListResultsCalls()[0].Client)
}

func TestGetResult(t *testing.T) {
	store := &mock.ResultStoreMock{
		GetResultFunc: func(ctx context.Context, id int64) (domain.Result, error) {
			if id != 5 {
				return domain.Result{}, service.NewEntityNotFoundError("result not found", nil)
			}
			return domain.Result{ID: 5, Artikul: "A-1", Client: "acme"}, nil
		},
	}
	ts := newTestServer(t, store)

	rec := ts.doJSON(http.MethodGet, "/api/results/5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.Result.ID)

	rec = ts.doJSON(http.MethodGet, "/api/results/99", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.ErrEntityNotFound, decodeError(t, rec).Error.Code)

	rec = ts.doJSON(http.MethodGet, "/api/results/notanid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrBadParameter, decodeError(t, rec).Error.Code)
}

func TestUpdateResult(t *testing.T) {
	store := &mock.ResultStoreMock{
		UpdateResultFunc: func(ctx context.Context, id int64, patch domain.ResultPatch) (domain.Result, error) {
			return domain.Result{ID: id, Quantity: *patch.Quantity}, nil
		},
	}
	ts := newTestServer(t, store)

	rec := ts.doJSON(http.MethodPut, "/api/results/3", `{"quantity":7}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Result.Quantity)

	// Maintenance edits never bump the sync version.
	assert.Equal(t, int64(0), ts.sync.Version())
}

func TestUpdateResult_EmptyPatch(t *testing.T) {
	ts := newTestServer(t, &mock.ResultStoreMock{})

	rec := ts.doJSON(http.MethodPut, "/api/results/3", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrBadParameter, decodeError(t, rec).Error.Code)
}

func TestDeleteResult(t *testing.T) {
	store := &mock.ResultStoreMock{
		DeleteResultFunc: func(ctx context.Context, id int64) error { return nil },
	}
	ts := newTestServer(t, store)

	rec := ts.doJSON(http.MethodDelete, "/api/results/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.DeleteResultCalls(), 1)
	assert.Equal(t, int64(3), store.DeleteResultCalls()[0].ID)
	assert.Equal(t, int64(0), ts.sync.Version())
}

func TestClearResults(t *testing.T) {
	store := &mock.ResultStoreMock{
		ClearResultsFunc: func(ctx context.Context, client string) (int64, error) { return 2, nil },
	}
	ts := newTestServer(t, store)

	rec := ts.doJSON(http.MethodPost, "/api/results/clear", `{"client":"acme"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ClearResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Deleted)
	assert.Equal(t, int64(1), resp.Version)

	require.Len(t, store.ClearResultsCalls(), 1)
	assert.Equal(t, "acme", store.ClearResultsCalls()[0].Client)
}

func TestListClients(t *testing.T) {
	store := &mock.ResultStoreMock{
		ListClientsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"acme", "globex"}, nil
		},
	}
	ts := newTestServer(t, store)

	rec := ts.doJSON(http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ClientsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"acme", "globex"}, resp.Clients)
}

func TestClientsCount(t *testing.T) {
	ts := newTestServer(t, &mock.ResultStoreMock{})

	ts.roster.Touch("10.0.0.1")
	ts.roster.Touch("10.0.0.2")

	rec := ts.doJSON(http.MethodGet, "/api/clients/count", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestCatalogRoundTrip(t *testing.T) {
	ts := newTestServer(t, &mock.ResultStoreMock{})

	// Nothing uploaded yet.
	rec := ts.doJSON(http.MethodGet, "/api/catalog/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info domain.CatalogInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.False(t, info.Exists)

	rec = ts.doJSON(http.MethodGet, "/api/catalog", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.ErrEntityNotFound, decodeError(t, rec).Error.Code)

	// Upload replaces the blob and bumps the version.
	payload := []byte("catalog-bytes")
	body, contentType := multipartBody(t, "parts.xlsx", payload)
	rec = ts.do(http.MethodPost, "/api/catalog", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	var upload UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))
	assert.Equal(t, "parts.xlsx", upload.Filename)
	assert.Equal(t, len(payload), upload.Size)
	assert.Equal(t, int64(1), upload.Version)

	rec = ts.doJSON(http.MethodGet, "/api/catalog/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.True(t, info.Exists)
	assert.Equal(t, "parts.xlsx", info.Filename)
	assert.Equal(t, len(payload), info.Size)

	// Download returns the exact bytes back.
	rec = ts.doJSON(http.MethodGet, "/api/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, rec.Body.Bytes())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `filename="parts.xlsx"`)
}

func TestUploadCatalog_NoFile(t *testing.T) {
	ts := newTestServer(t, &mock.ResultStoreMock{})

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.Close())

	rec := ts.do(http.MethodPost, "/api/catalog", body, mw.FormDataContentType())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrBadParameter, decodeError(t, rec).Error.Code)
}
