package pipeline

import (
	"io"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"

	"github.com/tkingovr/filtertools/filter"
)

// chainResult describes how the rest of the chain answered a request.
type chainResult struct {
	Code     int
	Written  int64
	Duration time.Duration
	Err      error
}

// captureChain runs next and records the response it produced. When next
// fails before writing a header, the host answers 500, so that is the
// recorded code.
func captureChain(w http.ResponseWriter, r *http.Request, next filter.Chain) chainResult {
	res := chainResult{Code: http.StatusOK}
	headerWritten := false

	hooks := httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				next(code)
				if !(code >= 100 && code <= 199) && !headerWritten {
					res.Code = code
					headerWritten = true
				}
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(p []byte) (int, error) {
				n, err := next(p)
				res.Written += int64(n)
				headerWritten = true
				return n, err
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				n, err := next(src)
				res.Written += n
				headerWritten = true
				return n, err
			}
		},
	}

	start := time.Now()
	res.Err = next.DoFilter(r, httpsnoop.Wrap(w, hooks))
	res.Duration = time.Since(start)

	if res.Err != nil && !headerWritten {
		res.Code = http.StatusInternalServerError
	}
	return res
}
