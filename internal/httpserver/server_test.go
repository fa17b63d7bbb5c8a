package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordsearch/assets"
	"github.com/robalobadob/wordsearch/internal/store"
	"github.com/robalobadob/wordsearch/internal/transcribe"
	"github.com/robalobadob/wordsearch/internal/wsfile"
)

func testConfig() Config {
	return Config{
		JWTSecret:        "test_secret",
		JWTExpiry:        time.Hour,
		CookieName:       "ws_token",
		ClientOrigin:     "http://localhost:5173",
		UploadRatePerMin: 2,
	}
}

type testEnv struct {
	t     *testing.T
	srv   *httptest.Server
	store store.Store
}

func newTestEnv(t *testing.T, tr transcribe.Transcriber) *testEnv {
	t.Helper()
	db, err := store.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db, assets.Migrations()))

	st := store.NewMemoryStore()
	srv := httptest.NewServer(New(testConfig(), st, db, tr))
	t.Cleanup(srv.Close)
	return &testEnv{t: t, srv: srv, store: st}
}

// client returns an HTTP client with its own cookie jar (one browser).
func (e *testEnv) client() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &http.Client{Jar: jar}
}

func (e *testEnv) do(c *http.Client, method, path string, body any) (*http.Response, []byte) {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.Do(req)
	require.NoError(e.t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(e.t, err)
	return res, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func (e *testEnv) createCat(c *http.Client) puzzleRes {
	e.t.Helper()
	res, body := e.do(c, http.MethodPost, "/puzzles", createReq{Title: "cats", Text: "cat\nara\ntac\n"})
	require.Equal(e.t, http.StatusCreated, res.StatusCode, string(body))
	return decode[puzzleRes](e.t, body)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	res, body := env.do(env.client(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestNotFoundIsJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	res, body := env.do(env.client(), http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, string(body), `"not_found"`)
}

func TestCreateAndGet(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	p := env.createCat(c)

	assert.Equal(t, "CAT\nARA\nTAC", p.Text)
	assert.Equal(t, []string{"CAT", "ARA", "TAC"}, p.Rows)
	assert.Equal(t, 3, p.RowLength)
	assert.Equal(t, 3, p.RowCount)
	assert.Empty(t, p.Positions)
	assert.Equal(t, 6, p.Extent.Width)
	assert.Equal(t, 4, p.Extent.Height)
	assert.True(t, p.Mine)

	res, body := env.do(c, http.MethodGet, "/puzzles/"+p.ID, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	got := decode[puzzleRes](t, body)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "cats", got.Title)
	assert.True(t, got.Mine)

	// Another browser can read but does not own it.
	_, body = env.do(env.client(), http.MethodGet, "/puzzles/"+p.ID, nil)
	assert.False(t, decode[puzzleRes](t, body).Mine)
}

func TestCreateWithInitialWords(t *testing.T) {
	env := newTestEnv(t, nil)
	res, body := env.do(env.client(), http.MethodPost, "/puzzles",
		createReq{Text: "CAT\nARA\nTAC", Words: []string{"cat", "c", "cat"}})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	p := decode[puzzleRes](t, body)
	assert.Equal(t, []string{"CAT"}, p.Words)
	assert.Equal(t, []int{0, 1, 2, 3, 5, 6, 7, 8}, p.Positions)
}

func TestCreateMalformedGrid(t *testing.T) {
	env := newTestEnv(t, nil)
	res, body := env.do(env.client(), http.MethodPost, "/puzzles", createReq{Text: "ABC\nDEFG\nHIJ"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.JSONEq(t, `{"error":"malformed_grid","row":2,"want":3,"got":4}`, string(body))
}

func TestFind(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	p := env.createCat(c)

	res, body := env.do(c, http.MethodPost, "/puzzles/"+p.ID+"/find", findReq{Word: " c a t "})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	f := decode[findRes](t, body)
	assert.Equal(t, "CAT", f.Word)
	assert.Equal(t, []int{0, 1, 2, 3, 5, 6, 7, 8}, f.Delta)
	assert.Equal(t, f.Delta, f.Positions)
	assert.Len(t, f.Matches, 4)

	// Searching again adds nothing.
	_, body = env.do(c, http.MethodPost, "/puzzles/"+p.ID+"/find", findReq{Word: "CAT"})
	f = decode[findRes](t, body)
	assert.Empty(t, f.Delta)
	assert.Len(t, f.Positions, 8)

	_, body = env.do(c, http.MethodPost, "/puzzles/"+p.ID+"/find", findReq{Word: "ZZZ"})
	f = decode[findRes](t, body)
	assert.Empty(t, f.Delta)
	assert.Empty(t, f.Matches)

	_, body = env.do(c, http.MethodGet, "/puzzles/"+p.ID, nil)
	assert.Equal(t, []string{"CAT", "ZZZ"}, decode[puzzleRes](t, body).Words)
}

func TestFindRequiresOwnership(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.createCat(env.client())

	res, _ := env.do(env.client(), http.MethodPost, "/puzzles/"+p.ID+"/find", findReq{Word: "CAT"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = env.do(env.client(), http.MethodDelete, "/puzzles/"+p.ID, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestFindUnknownPuzzle(t *testing.T) {
	env := newTestEnv(t, nil)
	res, _ := env.do(env.client(), http.MethodPost, "/puzzles/missing/find", findReq{Word: "CAT"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestClearAndReload(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	p := env.createCat(c)
	env.do(c, http.MethodPost, "/puzzles/"+p.ID+"/find", findReq{Word: "CAT"})

	res, body := env.do(c, http.MethodPut, "/puzzles/"+p.ID+"/grid", reloadReq{Text: "DOG\nOXO"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	got := decode[puzzleRes](t, body)
	assert.Equal(t, 3, got.RowLength)
	assert.Equal(t, 2, got.RowCount)
	assert.Empty(t, got.Positions)
	assert.Empty(t, got.Words)

	// A ragged reload leaves the puzzle as it was.
	res, _ = env.do(c, http.MethodPut, "/puzzles/"+p.ID+"/grid", reloadReq{Text: "AB\nC"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	_, body = env.do(c, http.MethodGet, "/puzzles/"+p.ID, nil)
	assert.Equal(t, "DOG\nOXO", decode[puzzleRes](t, body).Text)

	res, body = env.do(c, http.MethodPost, "/puzzles/"+p.ID+"/clear", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	got = decode[puzzleRes](t, body)
	assert.Equal(t, "", got.Text)
	assert.Equal(t, 0, got.RowLength)
	assert.Equal(t, 0, got.RowCount)

	_, body = env.do(c, http.MethodPost, "/puzzles/"+p.ID+"/find", findReq{Word: "DOG"})
	assert.Empty(t, decode[findRes](t, body).Delta)
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	p := env.createCat(c)
	env.do(c, http.MethodPost, "/puzzles/"+p.ID+"/find", findReq{Word: "ARA"})

	for _, q := range []string{"", "?compress=1"} {
		res, blob := env.do(c, http.MethodGet, "/puzzles/"+p.ID+"/export"+q, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "application/octet-stream", res.Header.Get("Content-Type"))
		assert.True(t, wsfile.Sniff(blob))

		res, err := c.Post(env.srv.URL+"/puzzles/import?title=copy", "application/octet-stream", bytes.NewReader(blob))
		require.NoError(t, err)
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
		imp := decode[puzzleRes](t, body)
		assert.NotEqual(t, p.ID, imp.ID)
		assert.Equal(t, "copy", imp.Title)
		assert.Equal(t, "CAT\nARA\nTAC", imp.Text)
		assert.Equal(t, []int{1, 3, 4, 5, 7}, imp.Positions)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	env := newTestEnv(t, nil)
	res, err := env.client().Post(env.srv.URL+"/puzzles/import", "application/octet-stream",
		bytes.NewReader([]byte("definitely not a puzzle file")))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	p := env.createCat(c)

	res, _ := env.do(c, http.MethodDelete, "/puzzles/"+p.ID, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = env.do(c, http.MethodGet, "/puzzles/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func uploadImage(t *testing.T, env *testEnv, c *http.Client, img []byte) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "photo"))
	fw, err := mw.CreateFormFile("image", "grid.png")
	require.NoError(t, err)
	_, _ = fw.Write(img)
	require.NoError(t, mw.Close())

	res, err := c.Post(env.srv.URL+"/puzzles/image", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return res, body
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n0000000000")

func TestCreateFromImage(t *testing.T) {
	var gotMIME string
	tr := transcribe.Func(func(ctx context.Context, image []byte, mimeType string) (string, error) {
		gotMIME = mimeType
		return "cat\nara\ntac", nil
	})
	env := newTestEnv(t, tr)
	res, body := uploadImage(t, env, env.client(), pngMagic)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	p := decode[puzzleRes](t, body)
	assert.Equal(t, "photo", p.Title)
	assert.Equal(t, "CAT\nARA\nTAC", p.Text)
	assert.Equal(t, "image/png", gotMIME)
}

func TestCreateFromImageErrors(t *testing.T) {
	res, _ := uploadImage(t, newTestEnv(t, nil), http.DefaultClient, pngMagic)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	low := transcribe.Func(func(context.Context, []byte, string) (string, error) {
		return "", transcribe.ErrLowConfidence
	})
	env := newTestEnv(t, low)
	res, _ = uploadImage(t, env, env.client(), pngMagic)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	ragged := transcribe.Func(func(context.Context, []byte, string) (string, error) {
		return "ABC\nDE", nil
	})
	env = newTestEnv(t, ragged)
	res, body := uploadImage(t, env, env.client(), pngMagic)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, string(body), "malformed_grid")
}

func TestCreateFromImageRateLimited(t *testing.T) {
	tr := transcribe.Func(func(context.Context, []byte, string) (string, error) { return "AB\nCD", nil })
	env := newTestEnv(t, tr)
	c := env.client()
	for i := 0; i < 2; i++ {
		res, _ := uploadImage(t, env, c, pngMagic)
		require.Equal(t, http.StatusCreated, res.StatusCode)
	}
	res, _ := uploadImage(t, env, c, pngMagic)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}

func TestAuthFlowClaimsGuestPuzzles(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	p := env.createCat(c)

	res, _ := env.do(c, http.MethodGet, "/puzzles/mine", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, body := env.do(c, http.MethodPost, "/auth/signup", credentials{Username: "solver_1", Password: "password123"})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))

	res, body = env.do(c, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "solver_1", decode[authUser](t, body).Username)

	res, body = env.do(c, http.MethodGet, "/puzzles/mine", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	mine := decode[[]summaryRes](t, body)
	require.Len(t, mine, 1)
	assert.Equal(t, p.ID, mine[0].ID)

	// Signed in, the user still owns the claimed puzzle.
	res, _ = env.do(c, http.MethodPost, "/puzzles/"+p.ID+"/find", findReq{Word: "CAT"})
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = env.do(c, http.MethodPost, "/auth/signup", credentials{Username: "SOLVER_1", Password: "password123"})
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	env.do(c, http.MethodPost, "/auth/logout", nil)
	res, _ = env.do(c, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	other := env.client()
	res, _ = env.do(other, http.MethodPost, "/auth/login", credentials{Username: "solver_1", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res, _ = env.do(other, http.MethodPost, "/auth/login", credentials{Username: "solver_1", Password: "password123"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = env.do(other, http.MethodDelete, "/puzzles/"+p.ID, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	res, body := env.do(env.client(), http.MethodPost, "/auth/signup", credentials{Username: "x", Password: "password123"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, string(body), "username")
}

func TestBearerToken(t *testing.T) {
	env := newTestEnv(t, nil)
	s := &Server{cfg: testConfig()}
	tok, _, err := s.signJWT("nobody", "ghost")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	// Valid signature but the user does not exist.
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	au, err := s.parseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "ghost", au.Username)

	_, err = (&Server{cfg: Config{JWTSecret: "other"}}).parseToken(tok)
	assert.Error(t, err)
}

func TestIPLimiter(t *testing.T) {
	l := newIPLimiter(2, time.Minute)
	assert.True(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("1.2.3.4"))
	assert.False(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("5.6.7.8"))

	unlimited := newIPLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.allow("1.2.3.4"))
	}
}
