package server_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apm/internal/catalog"
	"github.com/dmitrymomot/apm/internal/catalog/memory"
	"github.com/dmitrymomot/apm/internal/identity"
	"github.com/dmitrymomot/apm/internal/server"
	"github.com/dmitrymomot/apm/pkg/effect"
	"github.com/dmitrymomot/apm/pkg/health"
	"github.com/dmitrymomot/apm/pkg/store"
)

type fixture struct {
	st  *store.Store
	cat *catalog.Selectors
	srv *server.Server
}

func newFixture(t *testing.T, opts ...server.Option) *fixture {
	t.Helper()

	st := store.New(store.Combine(catalog.Feature(), identity.Feature()))
	rt := effect.New(st)
	require.NoError(t, rt.Register(catalog.Effects(memory.New())...))
	require.NoError(t, rt.Register(identity.Effects(identity.DemoAuth{})...))
	require.NoError(t, rt.Start(context.Background()))

	f := &fixture{st: st, cat: catalog.NewSelectors()}
	f.srv = server.New(st, f.cat, identity.NewSelectors(), opts...)

	t.Cleanup(func() {
		f.srv.CloseStreams()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, rt.Stop(ctx))
		st.Dispose()
		_ = f.cat.Close()
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

type productsView struct {
	Products        []catalog.Product `json:"products"`
	Filter          string            `json:"listFilter"`
	ShowProductCode bool              `json:"showProductCode"`
	CurrentProduct  *catalog.Product  `json:"currentProduct"`
	DescriptionHTML string            `json:"currentProductDescriptionHtml"`
	Error           string            `json:"error"`
}

func (f *fixture) products(t *testing.T, query string) productsView {
	t.Helper()

	rec := f.do(t, http.MethodGet, "/api/products"+query, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var v productsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (f *fixture) load(t *testing.T) {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/products/load", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool {
		return len(f.products(t, "").Products) == len(memory.Seed())
	}, time.Second, time.Millisecond)
}

func TestServer_Products(t *testing.T) {
	t.Parallel()

	t.Run("initial view", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		v := f.products(t, "")
		require.Empty(t, v.Products)
		require.NotNil(t, v.Products, "empty list encodes as []")
		require.True(t, v.ShowProductCode)
		require.Nil(t, v.CurrentProduct)
	})

	t.Run("load accepted then visible", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		rec := f.do(t, http.MethodPost, "/api/products/load", "")
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Contains(t, rec.Body.String(), `"kind":"[Product] Load"`)
		require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

		require.Eventually(t, func() bool {
			return len(f.products(t, "").Products) == len(memory.Seed())
		}, time.Second, time.Millisecond)
	})

	t.Run("filter and code toggle", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.load(t)

		require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/products/filter", `{"filter":"GDN"}`).Code)
		require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/products/code", `{"show":false}`).Code)

		v := f.products(t, "")
		require.Len(t, v.Products, 2)
		require.Equal(t, "GDN", v.Filter)
		require.False(t, v.ShowProductCode)
		require.Len(t, f.products(t, "?all=true").Products, len(memory.Seed()))
	})

	t.Run("select current product renders description", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.load(t)

		require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/products/current/5", "").Code)
		v := f.products(t, "")
		require.NotNil(t, v.CurrentProduct)
		require.Equal(t, "Hammer", v.CurrentProduct.Name)
		require.Equal(t, "<p>Curved claw steel hammer.</p>\n", v.DescriptionHTML)

		require.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/products/current/999", "").Code)

		require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/products/current/new", "").Code)
		v = f.products(t, "")
		require.Equal(t, catalog.BlankProduct(), *v.CurrentProduct)

		require.Equal(t, http.StatusAccepted, f.do(t, http.MethodDelete, "/api/products/current", "").Code)
		require.Nil(t, f.products(t, "").CurrentProduct)
	})

	t.Run("create update delete", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.load(t)

		rec := f.do(t, http.MethodPost, "/api/products",
			`{"id":42,"productName":"Drill","productCode":"TBX-0099","description":"Cordless","starRating":4,"price":49.5}`)
		require.Equal(t, http.StatusAccepted, rec.Code)

		var created *catalog.Product
		require.Eventually(t, func() bool {
			created = f.products(t, "").CurrentProduct
			return created != nil && created.Name == "Drill"
		}, time.Second, time.Millisecond)
		require.NotEqual(t, 42, created.ID, "the backend assigns ids")

		path := "/api/products/" + strconv.Itoa(created.ID)
		rec = f.do(t, http.MethodPut, path,
			`{"productName":"Drill","productCode":"TBX-0099","description":"Cordless","starRating":4,"price":39}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Eventually(t, func() bool {
			p := f.products(t, "").CurrentProduct
			return p != nil && p.Price == 39
		}, time.Second, time.Millisecond)

		require.Equal(t, http.StatusAccepted, f.do(t, http.MethodDelete, path, "").Code)
		require.Eventually(t, func() bool {
			return len(f.products(t, "").Products) == len(memory.Seed())
		}, time.Second, time.Millisecond)
	})

	t.Run("invalid product surfaces as error", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/products", `{"productName":"X","productCode":"bad"}`).Code)
		require.Eventually(t, func() bool {
			return f.products(t, "").Error != ""
		}, time.Second, time.Millisecond)
	})

	t.Run("bad requests", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/products", "").Code)
		require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/products", "{").Code)
		require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodDelete, "/api/products/abc", "").Code)
		require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/products/0", "{}").Code)
		require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/nope", "").Code)
		require.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodPatch, "/api/products/load", "").Code)
	})

	t.Run("disposed store answers 503", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.st.Dispose()
		require.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodPost, "/api/products/load", "").Code)
	})
}

func TestServer_Session(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	type sessionView struct {
		LoggedIn    bool   `json:"loggedIn"`
		DisplayName string `json:"displayName"`
		Error       string `json:"error"`
	}
	session := func() sessionView {
		rec := f.do(t, http.MethodGet, "/api/session", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var v sessionView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		return v
	}

	require.False(t, session().LoggedIn)

	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/session/login", `{"userName":"jane","password":"secret"}`).Code)
	require.Eventually(t, func() bool { return session().LoggedIn }, time.Second, time.Millisecond)
	require.Equal(t, "jane", session().DisplayName)

	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/session/mask", `{"mask":true}`).Code)
	require.Equal(t, "****", session().DisplayName)

	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/session/logout", "").Code)
	require.False(t, session().LoggedIn)

	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/api/session/login", `{"userName":"jane"}`).Code)
	require.Eventually(t, func() bool { return session().Error != "" }, time.Second, time.Millisecond)
}

func TestServer_ProductEvents(t *testing.T) {
	t.Parallel()

	f := newFixture(t, server.WithKeepAlive(time.Hour))
	ts := httptest.NewServer(f.srv)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/products/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan productsView, 8)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			data, ok := strings.CutPrefix(sc.Text(), "data: ")
			if !ok {
				continue
			}
			var v productsView
			if json.Unmarshal([]byte(data), &v) == nil {
				events <- v
			}
		}
	}()

	next := func() productsView {
		select {
		case v, ok := <-events:
			require.True(t, ok, "stream ended")
			return v
		case <-time.After(2 * time.Second):
			require.FailNow(t, "no event")
			return productsView{}
		}
	}

	require.Empty(t, next().Products, "current view is sent first")

	require.NoError(t, f.st.Dispatch(catalog.Load{}))
	v := next()
	for len(v.Products) != len(memory.Seed()) {
		v = next()
	}

	require.NoError(t, f.st.Dispatch(catalog.SetListFilter{Filter: "saw"}))
	v = next()
	require.Len(t, v.Products, 1)
	require.Equal(t, "Saw", v.Products[0].Name)

	f.srv.CloseStreams()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, time.Millisecond, "shutdown ends the stream")
}

func TestServer_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	failing := func(context.Context) error { return health.ErrCheckFailed }
	f := newFixture(t,
		server.WithChecker(health.NewChecker(health.Checks{"db": failing})),
		server.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health/live", "").Code)
	require.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/health/ready", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/metrics", "").Code)
}

func TestServer_Middleware(t *testing.T) {
	t.Parallel()

	t.Run("request id is propagated", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/api/products/load", nil)
		req.Header.Set("X-Request-ID", "req-1")
		rec := httptest.NewRecorder()
		f.srv.ServeHTTP(rec, req)

		require.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
		require.Contains(t, rec.Body.String(), `"requestId":"req-1"`)
	})

	t.Run("cors preflight for allowed origin", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, server.WithCORSOrigins("http://localhost:4200"))
		req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
		req.Header.Set("Origin", "http://localhost:4200")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		f.srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "http://localhost:4200", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	})

	t.Run("cors ignores other origins", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, server.WithCORSOrigins("http://localhost:4200"))
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		f.srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

