package filter

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// traceResponse collects the steps taken for one request.
type traceResponse struct {
	steps []string
}

// stepFilter appends its name to the response of the request it runs for.
type stepFilter struct {
	name  string
	calls atomic.Int64
}

func (f *stepFilter) Init(Config) error { return nil }
func (f *stepFilter) Destroy() error    { return nil }

func (f *stepFilter) DoFilter(req Request, resp Response, next Chain) error {
	f.calls.Add(1)
	tr := resp.(*traceResponse)
	tr.steps = append(tr.steps, f.name)
	return next.DoFilter(req, resp)
}

func TestComposedFilters_ConcurrentInvocations(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a, b, odd := &stepFilter{name: "a"}, &stepFilter{name: "b"}, &stepFilter{name: "odd"}
	onlyOdd, err := NewOptional(PredicateFunc(func(req Request) bool {
		return req.(int)%2 == 1
	}), odd)
	require.NoError(t, err)

	inner, err := Encase(b, onlyOdd)
	require.NoError(t, err)
	f, err := NewEncased(logger, a, inner)
	require.NoError(t, err)
	require.NoError(t, f.Init(EmptyConfig))

	const workers, perWorker = 8, 50
	results := make([][]string, workers*perWorker)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				n := w*perWorker + i
				tr := &traceResponse{}
				err := f.DoFilter(n, tr, ChainFunc(func(req Request, resp Response) error {
					out := resp.(*traceResponse)
					out.steps = append(out.steps, fmt.Sprintf("chain(%d)", req.(int)))
					return nil
				}))
				if err != nil {
					results[n] = []string{err.Error()}
					continue
				}
				results[n] = tr.steps
			}
		}()
	}
	wg.Wait()

	for n, steps := range results {
		want := []string{"a", "b", fmt.Sprintf("chain(%d)", n)}
		if n%2 == 1 {
			want = []string{"a", "b", "odd", fmt.Sprintf("chain(%d)", n)}
		}
		assert.Equal(t, want, steps, "request %d", n)
	}
	assert.EqualValues(t, workers*perWorker, a.calls.Load())
	assert.EqualValues(t, workers*perWorker, b.calls.Load())
	assert.EqualValues(t, workers*perWorker/2, odd.calls.Load())
	require.NoError(t, f.Destroy())
}
