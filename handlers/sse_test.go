package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gearledger/domain"
	"gearledger/interfaces/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readFrame consumes lines, skipping comments, until one data frame is
// decoded.
func readFrame(t *testing.T, r *bufio.Reader) domain.Event {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if strings.HasPrefix(line, "data:") {
			var evt domain.Event
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(line[len("data:"):])), &evt))
			return evt
		}
	}
}

func readComment(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if strings.HasPrefix(line, ":") {
			return line
		}
	}
}

func openStream(t *testing.T, url string) (*bufio.Reader, func()) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewReader(resp.Body), func() { _ = resp.Body.Close() }
}

func TestEvents_ConnectedFrameFirst(t *testing.T) {
	ts := newTestServer(t, &mock.ResultStoreMock{})
	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	r, done := openStream(t, srv.URL)
	defer done()

	evt := readFrame(t, r)
	assert.Equal(t, domain.EventConnected, evt.Type)
	assert.Equal(t, int64(0), evt.Version)
	assert.Nil(t, evt.Catalog)
}

func TestEvents_CatalogCatchUpForLateJoiner(t *testing.T) {
	ts := newTestServer(t, &mock.ResultStoreMock{})

	_, err := ts.sync.UploadCatalog("parts.xlsx", []byte("abc"))
	require.NoError(t, err)

	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	r, done := openStream(t, srv.URL)
	defer done()

	connected := readFrame(t, r)
	assert.Equal(t, domain.EventConnected, connected.Type)
	assert.Equal(t, int64(1), connected.Version)
	require.NotNil(t, connected.Catalog)
	assert.Equal(t, "parts.xlsx", connected.Catalog.Filename)

	catchUp := readFrame(t, r)
	assert.Equal(t, domain.EventCatalogUploaded, catchUp.Type)
	assert.Equal(t, "parts.xlsx", catchUp.Filename)
	assert.Equal(t, 3, catchUp.Size)
}

func TestEvents_DeliversPublishedEvents(t *testing.T) {
	store := &mock.ResultStoreMock{
		UpsertResultFunc: func(ctx context.Context, in domain.ResultInput) (domain.Result, error) {
			return domain.Result{ID: 1, Artikul: in.Artikul, Client: in.Client}, nil
		},
	}
	ts := newTestServer(t, store)
	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	r, done := openStream(t, srv.URL)
	defer done()

	connected := readFrame(t, r)
	require.Equal(t, domain.EventConnected, connected.Type)

	_, _, err := ts.sync.SubmitResult(context.Background(), domain.ResultInput{Artikul: "PK-5396", Client: "Acme", Quantity: 1})
	require.NoError(t, err)

	evt := readFrame(t, r)
	assert.Equal(t, domain.EventResultsChanged, evt.Type)
	assert.Equal(t, int64(1), evt.Version)
}

func TestEvents_KeepaliveComments(t *testing.T) {
	ts := newTestServer(t, &mock.ResultStoreMock{})
	ts.handler.keepalive = 30 * time.Millisecond
	srv := httptest.NewServer(ts.e)
	defer srv.Close()

	r, done := openStream(t, srv.URL)
	defer done()

	readFrame(t, r)

	comment := readComment(t, r)
	assert.Equal(t, ": keepalive", comment)
}
