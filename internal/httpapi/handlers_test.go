package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pongserver/internal/hub"
	"pongserver/internal/store"
	"pongserver/internal/ws"
)

func testRouter(t *testing.T) (http.Handler, *hub.Hub) {
	t.Helper()
	h := hub.New(zap.NewNop())
	api := NewAPI(h, zap.NewNop())
	r := SetupRoutes(api, ws.Deps{
		Hub:       h,
		Store:     store.NewMemoryStore(),
		Log:       zap.NewNop(),
		Countdown: 0,
		WinScore:  5,
	})
	return r, h
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealthz(t *testing.T) {
	r, _ := testRouter(t)
	rec, _ := doJSON(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateTournamentValidation(t *testing.T) {
	r, h := testRouter(t)

	rec, body := doJSON(t, r, http.MethodPost, "/tournaments", `{"players":["Alice"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "at least")

	rec, body = doJSON(t, r, http.MethodPost, "/tournaments", `{"players":["Alice","B"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "characters")

	rec, _ = doJSON(t, r, http.MethodPost, "/tournaments", `{"players":["Alice","Bobby"]}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, h.TournamentCount())
}

func TestTournamentLifecycle(t *testing.T) {
	r, h := testRouter(t)

	rec, created := doJSON(t, r, http.MethodPost, "/tournaments", `{"players":["Alice","Bobby"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := created["id"].(string)

	rec, paired := doJSON(t, r, http.MethodPost, "/tournaments/"+id+"/pairings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	pairing := paired["pairing"].(map[string]any)
	a := pairing["playerA"].(map[string]any)["name"].(string)
	b := pairing["playerB"].(map[string]any)["name"].(string)
	assert.NotEqual(t, a, b)
	assert.Equal(t, float64(1), paired["round"])

	// Another draw before the result comes in: the pool is empty.
	rec, paired = doJSON(t, r, http.MethodPost, "/tournaments/"+id+"/pairings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, paired["pairing"])

	result := `{"playerA":"` + a + `","playerB":"` + b + `","scoreA":5,"scoreB":2}`
	rec, body := doJSON(t, r, http.MethodPost, "/tournaments/"+id+"/results", result)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, a, body["winner"])
	assert.Equal(t, a, body["champion"])
	assert.Equal(t, 0, h.TournamentCount())

	rec, body = doJSON(t, r, http.MethodGet, "/tournaments/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["results"], 1)
}

func TestConcurrentResultAndPairingRequests(t *testing.T) {
	r, _ := testRouter(t)

	rec, created := doJSON(t, r, http.MethodPost, "/tournaments",
		`{"players":["Alice","Bobby","Carol","David"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := created["id"].(string)

	rec, paired := doJSON(t, r, http.MethodPost, "/tournaments/"+id+"/pairings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	pairing := paired["pairing"].(map[string]any)
	a := pairing["playerA"].(map[string]any)["name"].(string)
	b := pairing["playerB"].(map[string]any)["name"].(string)
	result := `{"playerA":"` + a + `","playerB":"` + b + `","scoreA":5,"scoreB":2}`

	// The result lands while other callers are still drawing pairings;
	// both paths touch the open-pairing map.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		req := httptest.NewRequest(http.MethodPost, "/tournaments/"+id+"/results", strings.NewReader(result))
		r.ServeHTTP(httptest.NewRecorder(), req)
	}()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/tournaments/"+id+"/pairings", nil)
			r.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	rec, body := doJSON(t, r, http.MethodGet, "/tournaments/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["results"], 1)
}

func TestRecordResultWithoutOpenPairing(t *testing.T) {
	r, _ := testRouter(t)

	rec, created := doJSON(t, r, http.MethodPost, "/tournaments", `{"players":["Alice","Bobby"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := created["id"].(string)

	rec, _ = doJSON(t, r, http.MethodPost, "/tournaments/"+id+"/results",
		`{"playerA":"Alice","playerB":"Bobby","scoreA":5,"scoreB":2}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownTournament(t *testing.T) {
	r, _ := testRouter(t)
	rec, _ := doJSON(t, r, http.MethodGet, "/tournaments/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMatches(t *testing.T) {
	r, _ := testRouter(t)
	rec, body := doJSON(t, r, http.MethodGet, "/matches", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["activeMatches"])
}
