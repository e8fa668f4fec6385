package httpfilter

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkingovr/filtertools/filter"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	})
}

func TestFunc_RejectsNonHTTPRequest(t *testing.T) {
	f := Func(func(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
		t.Fatal("filter must not be called")
		return nil
	})

	err := f.DoFilter("plain string", httptest.NewRecorder(), filter.ChainFunc(func(filter.Request, filter.Response) error { return nil }))

	var reqErr *NotAnHTTPRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "plain string", reqErr.Request)
	assert.Equal(t, "the request plain string is not a *http.Request, but a string", err.Error())
}

func TestFunc_RejectsNonHTTPResponse(t *testing.T) {
	f := Func(func(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
		t.Fatal("filter must not be called")
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	err := f.DoFilter(req, 42, filter.ChainFunc(func(filter.Request, filter.Response) error { return nil }))

	var respErr *NotAnHTTPResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, 42, respErr.Response)
	assert.Contains(t, err.Error(), "but a int")
}

type lifecycleFilter struct {
	Base
	inits    int
	destroys int
}

func (f *lifecycleFilter) Init(filter.Config) error { f.inits++; return nil }
func (f *lifecycleFilter) Destroy() error           { f.destroys++; return nil }
func (f *lifecycleFilter) DoHTTPFilter(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
	w.Header().Set("X-Seen", r.URL.Path)
	return next.DoFilter(r, w)
}

func TestAdapt_DelegatesLifecycleAndFilter(t *testing.T) {
	lf := &lifecycleFilter{}
	f := Adapt(lf)

	require.NoError(t, f.Init(filter.EmptyConfig))
	require.NoError(t, f.Destroy())
	assert.Equal(t, 1, lf.inits)
	assert.Equal(t, 1, lf.destroys)

	rec := httptest.NewRecorder()
	Handler(f, okHandler("done")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a", nil))
	assert.Equal(t, "/a", rec.Header().Get("X-Seen"))
	assert.Equal(t, "done", rec.Body.String())
}

func TestAdapt_Nil(t *testing.T) {
	assert.Nil(t, Adapt(nil))
	assert.Nil(t, Func(nil))
}

func TestHandler_ComposedFiltersRunInOrder(t *testing.T) {
	var order []string
	mk := func(name string) filter.Filter {
		return Func(func(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
			order = append(order, name+"-before")
			err := next.DoFilter(r, w)
			order = append(order, name+"-after")
			return err
		})
	}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	f, err := filter.Encase(mk("f1"), mk("f2"))
	require.NoError(t, err)

	Handler(f, final).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"f1-before", "f2-before", "handler", "f2-after", "f1-after"}, order)
}

func TestHandler_ErrorRepliesInternalServerError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	f := Func(func(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
		return errors.New("kaputt")
	})

	rec := httptest.NewRecorder()
	Handler(f, okHandler("never"), WithLogger(logger)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "kaputt")
}

func TestHandler_ErrorAfterResponseStartedIsOnlyLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	f := Func(func(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
		if err := next.DoFilter(r, w); err != nil {
			return err
		}
		return errors.New("post failure")
	})

	rec := httptest.NewRecorder()
	Handler(f, okHandler("body"), WithLogger(logger)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body", rec.Body.String())
	assert.Contains(t, buf.String(), "post failure")
}

func TestHandler_CustomErrorHandler(t *testing.T) {
	boom := errors.New("boom")
	var got error
	f := Func(func(w http.ResponseWriter, r *http.Request, next filter.Chain) error { return boom })

	rec := httptest.NewRecorder()
	h := Handler(f, okHandler("never"), WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Same(t, boom, got)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestHandler_ChainRejectsForeignResponse(t *testing.T) {
	var chainErr error
	f := Func(func(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
		chainErr = next.DoFilter(r, "not a writer")
		return nil
	})

	Handler(f, okHandler("never")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var respErr *NotAnHTTPResponseError
	assert.ErrorAs(t, chainErr, &respErr)
}

func TestMiddleware(t *testing.T) {
	f := Func(func(w http.ResponseWriter, r *http.Request, next filter.Chain) error {
		w.Header().Set("X-Filtered", "yes")
		return next.DoFilter(r, w)
	})

	rec := httptest.NewRecorder()
	Middleware(f)(okHandler("ok")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "yes", rec.Header().Get("X-Filtered"))
	assert.Equal(t, "ok", rec.Body.String())
}
