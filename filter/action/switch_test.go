package action

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkingovr/filtertools/filter"
)

func isPost() filter.Predicate {
	return filter.PredicateFunc(func(req filter.Request) bool {
		r, ok := req.(*http.Request)
		return ok && r.Method == http.MethodPost
	})
}

func TestSwitch_ExecutesExactlyOneAction(t *testing.T) {
	j := &journal{}
	sw, err := Execute(&recordingAction{name: "match", j: j}).
		When(isPost()).
		OtherwiseExecute(&recordingAction{name: "other", j: j})
	require.NoError(t, err)

	w, r := newRequest()
	require.NoError(t, sw.Execute(w, r))
	r.Method = http.MethodPost
	require.NoError(t, sw.Execute(w, r))

	assert.Equal(t, []string{"other.execute", "match.execute"}, j.entries)
}

func TestSwitch_EvaluatesPredicateOnce(t *testing.T) {
	j := &journal{}
	calls := 0
	p := filter.PredicateFunc(func(filter.Request) bool {
		calls++
		return calls%2 == 1
	})
	sw, err := Execute(&recordingAction{name: "match", j: j}).
		When(p).
		OtherwiseExecute(&recordingAction{name: "other", j: j})
	require.NoError(t, err)

	w, r := newRequest()
	require.NoError(t, sw.Execute(w, r))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"match.execute"}, j.entries)
}

func TestSwitch_PropagatesActionError(t *testing.T) {
	j := &journal{}
	boom := errors.New("boom")
	sw, err := Execute(&recordingAction{name: "match", j: j, execErr: boom}).
		When(filter.PredicateFunc(func(filter.Request) bool { return true })).
		OtherwiseExecute(&recordingAction{name: "other", j: j})
	require.NoError(t, err)

	w, r := newRequest()
	assert.Same(t, boom, sw.Execute(w, r))
}

func TestSwitch_LifecycleCoversBothActions(t *testing.T) {
	j := &journal{}
	first := errors.New("match destroy failed")
	sw, err := Execute(&recordingAction{name: "match", j: j, destroyErr: first}).
		When(isPost()).
		OtherwiseExecute(&recordingAction{name: "other", j: j})
	require.NoError(t, err)

	require.NoError(t, sw.Init(filter.EmptyConfig))
	assert.Same(t, first, sw.Destroy())
	assert.Equal(t, []string{"match.init", "other.init", "match.destroy", "other.destroy"}, j.entries)
}

func TestSwitch_InitFailureDestroysFirstAction(t *testing.T) {
	j := &journal{}
	initErr := errors.New("other init failed")
	sw, err := Execute(&recordingAction{name: "match", j: j}).
		When(isPost()).
		OtherwiseExecute(&recordingAction{name: "other", j: j, initErr: initErr})
	require.NoError(t, err)

	assert.Same(t, initErr, sw.Init(filter.EmptyConfig))
	assert.Equal(t, []string{"match.init", "other.init", "match.destroy"}, j.entries)
}

func TestSwitch_RejectsMissingArguments(t *testing.T) {
	noop := Func(func(http.ResponseWriter, *http.Request) error { return nil })

	_, err := Execute(nil).When(isPost()).OtherwiseExecute(noop)
	assert.ErrorIs(t, err, ErrMissingAction)
	assert.Contains(t, err.Error(), "execute")

	_, err = Execute(noop).When(nil).OtherwiseExecute(noop)
	assert.ErrorIs(t, err, filter.ErrMissingPredicate)
	assert.Contains(t, err.Error(), "when")

	_, err = Execute(noop).When(isPost()).OtherwiseExecute(nil)
	assert.ErrorIs(t, err, ErrMissingAction)
	assert.Contains(t, err.Error(), "otherwise execute")

	_, err = Execute(nil).When(nil).OtherwiseExecute(nil)
	assert.ErrorIs(t, err, ErrMissingAction)
	assert.Contains(t, err.Error(), "execute:")
}

func TestSwitch_UsableInPreFilter(t *testing.T) {
	j := &journal{}
	sw, err := Execute(&recordingAction{name: "match", j: j}).
		When(isPost()).
		OtherwiseExecute(&recordingAction{name: "other", j: j})
	require.NoError(t, err)

	f, err := NewPre(sw)
	require.NoError(t, err)

	w, r := newRequest()
	require.NoError(t, f.DoFilter(r, w, chainTo(j, nil)))
	assert.Equal(t, []string{"other.execute", "chain"}, j.entries)
}
