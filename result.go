package neoseed

import (
	"errors"
	"iter"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Counters reports the writes performed by a query.
type Counters struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
}

// Result is the outcome of a single Execute call: either the buffered rows
// or the failure that produced none. A failed Result is always empty, so
// callers that only care about rows can ignore Err.
type Result struct {
	records  []Record
	columns  []string
	counters Counters
	elapsed  time.Duration
	err      *QueryError
}

// NewResult builds a successful Result from already materialized records.
func NewResult(records []Record, counters Counters) Result {
	var cols []string
	if len(records) > 0 {
		cols = records[0].Keys()
	}
	return Result{records: records, columns: cols, counters: counters}
}

// FailedResult builds an empty Result that carries err.
func FailedResult(query string, err error) Result {
	var qe *QueryError
	if !errors.As(err, &qe) {
		qe = newQueryError(query, err)
	}
	return Result{err: qe}
}

// Records returns every row in the order the server produced them.
func (r Result) Records() []Record {
	return r.records
}

// Rows yields the records once, in order. Re-run the query to iterate again.
func (r Result) Rows() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, rec := range r.records {
			if !yield(rec) {
				return
			}
		}
	}
}

// First returns the first record, if any.
func (r Result) First() (Record, bool) {
	if len(r.records) == 0 {
		return Record{}, false
	}
	return r.records[0], true
}

// Columns returns the column names of the result set.
func (r Result) Columns() []string {
	return r.columns
}

// Counters returns the write counters from the result summary.
func (r Result) Counters() Counters {
	return r.counters
}

// Elapsed is the wall time spent executing and collecting the query.
func (r Result) Elapsed() time.Duration {
	return r.elapsed
}

// Len returns the number of records.
func (r Result) Len() int {
	return len(r.records)
}

// Empty reports whether the query produced no rows, for whatever reason.
func (r Result) Empty() bool {
	return len(r.records) == 0
}

// Failed reports whether the query failed.
func (r Result) Failed() bool {
	return r.err != nil
}

// Err returns the recorded failure, or nil.
func (r Result) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

func countersFromSummary(summary neo4j.ResultSummary) Counters {
	if summary == nil || summary.Counters() == nil {
		return Counters{}
	}
	c := summary.Counters()
	return Counters{
		NodesCreated:         c.NodesCreated(),
		NodesDeleted:         c.NodesDeleted(),
		RelationshipsCreated: c.RelationshipsCreated(),
		RelationshipsDeleted: c.RelationshipsDeleted(),
		PropertiesSet:        c.PropertiesSet(),
	}
}
