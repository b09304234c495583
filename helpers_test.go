package neoseed

import (
	"context"
	"fmt"
	"strings"
)

// executedQuery is one recorded Execute call.
type executedQuery struct {
	Query  string
	Params map[string]any
}

// rule answers every query containing Match.
type rule struct {
	Match  string
	Result Result
	Err    error
}

// fakeExecutor is a scripted Executor. The first rule whose Match is a
// substring of the query decides the result; unmatched queries succeed
// with no rows.
type fakeExecutor struct {
	rules []rule
	calls []executedQuery
}

func (f *fakeExecutor) on(match string, res Result) *fakeExecutor {
	f.rules = append(f.rules, rule{Match: match, Result: res})
	return f
}

func (f *fakeExecutor) fail(match string, err error) *fakeExecutor {
	f.rules = append(f.rules, rule{Match: match, Err: err})
	return f
}

func (f *fakeExecutor) Execute(_ context.Context, query string, params map[string]any) Result {
	f.calls = append(f.calls, executedQuery{Query: query, Params: params})
	for _, r := range f.rules {
		if strings.Contains(query, r.Match) {
			if r.Err != nil {
				return FailedResult(query, r.Err)
			}
			return r.Result
		}
	}
	return NewResult(nil, Counters{})
}

func (f *fakeExecutor) queries() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Query
	}
	return out
}

// rows builds a successful Result with one column per key.
func rows(keys []string, values ...[]any) Result {
	recs := make([]Record, 0, len(values))
	for _, v := range values {
		recs = append(recs, NewRecord(keys, v))
	}
	return NewResult(recs, Counters{})
}

// scalar builds a one-row, one-column Result.
func scalar(key string, v any) Result {
	return rows([]string{key}, []any{v})
}

// recordingReporter keeps every reporter call as a prefixed line.
type recordingReporter struct {
	lines []string
}

func (r *recordingReporter) Section(title string) { r.lines = append(r.lines, "section: "+title) }
func (r *recordingReporter) Step(msg string) { r.lines = append(r.lines, "step: "+msg) }
func (r *recordingReporter) Done(msg string) { r.lines = append(r.lines, "done: "+msg) }
func (r *recordingReporter) Failed(msg string, err error) {
	r.lines = append(r.lines, fmt.Sprintf("failed: %s: %v", msg, err))
}
func (r *recordingReporter) Row(format string, args ...any) {
	r.lines = append(r.lines, "row: "+fmt.Sprintf(format, args...))
}

func (r *recordingReporter) withPrefix(prefix string) []string {
	var out []string
	for _, l := range r.lines {
		if strings.HasPrefix(l, prefix) {
			out = append(out, strings.TrimPrefix(l, prefix))
		}
	}
	return out
}
