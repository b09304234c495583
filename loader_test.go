package neoseed

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFixtures(t *testing.T) *Fixtures {
	t.Helper()
	f, err := DefaultFixtures()
	require.NoError(t, err)
	return f
}

func newTestLoader(t *testing.T, exec Executor, opts ...LoaderOption) *Loader {
	t.Helper()
	l, err := NewLoader(exec, testFixtures(t), opts...)
	require.NoError(t, err)
	return l
}

// seededExecutor answers the workflow queries the way a server holding the
// default fixtures would.
func seededExecutor() *fakeExecutor {
	day := func(s string) dbtype.Date {
		d, _ := time.Parse("2006-01-02", s)
		return dbtype.Date(d)
	}
	return (&fakeExecutor{}).
		on(wipeQuery, NewResult(nil, Counters{})).
		on("CREATE (n:Role)", scalar("created", int64(3))).
		on("CREATE (n:User)", scalar("created", int64(4))).
		on("CREATE (n:Test)", scalar("created", int64(3))).
		on("[:HAS_ROLE]->(b)", scalar("cnt", int64(4))).
		on("[:CREATED]->(b)", scalar("cnt", int64(3))).
		on("count(u) AS num", rows([]string{"role", "num"},
			[]any{"Administrator", int64(1)},
			[]any{"Test Author", int64(1)},
			[]any{"Student", int64(2)},
		)).
		on("AS pub", rows([]string{"test", "author", "created", "pub"},
			[]any{"Programming Basics", "teacher", day("2024-01-15"), true},
			[]any{"Databases", "teacher", day("2024-02-20"), true},
			[]any{"Web Development", "teacher", day("2024-03-10"), false},
		)).
		on("$username", rows([]string{"test", "tlimit"},
			[]any{"Programming Basics", int64(45)},
			[]any{"Databases", int64(60)},
			[]any{"Web Development", int64(90)},
		)).
		on("$role", rows([]string{"username", "firstName", "lastName"},
			[]any{"student1", "Alexey", "Sidorov"},
			[]any{"student2", "Olga", "Kuznetsova"},
		)).
		on("MATCH (n:User) RETURN count(n)", scalar("total", int64(4))).
		on("MATCH (n:Test) RETURN count(n)", scalar("total", int64(3))).
		on("MATCH (n:Role) RETURN count(n)", scalar("total", int64(3)))
}

func TestLoader_Run(t *testing.T) {
	exec := seededExecutor()
	rep := &recordingReporter{}
	l := newTestLoader(t, exec, WithReporter(rep))

	s := l.Run(context.Background())

	assert.True(t, s.OK(), "failed steps: %v", s.FailedSteps)
	assert.Equal(t, SeedCounts{Roles: 3, Users: 4, Tests: 3}, s.Seeded)
	assert.Equal(t, EdgeCounts{HasRole: 4, Created: 3}, s.Edges)
	assert.Equal(t, Totals{Users: 4, Tests: 3, Roles: 3}, s.Totals)

	assert.Equal(t, []string{
		"Administrator: 1",
		"Test Author: 1",
		"Student: 2",
		"Programming Basics (author: teacher, date: 2024-01-15, published: true)",
		"Databases (author: teacher, date: 2024-02-20, published: true)",
		"Web Development (author: teacher, date: 2024-03-10, published: false)",
		"Programming Basics - 45 min",
		"Databases - 60 min",
		"Web Development - 90 min",
		"student1: Alexey Sidorov",
		"student2: Olga Kuznetsova",
		"Users: 4",
		"Tests: 3",
		"Roles: 3",
	}, rep.withPrefix("row: "))

	assert.Contains(t, rep.withPrefix("done: "), "User-role relationships: 4")
	assert.Contains(t, rep.withPrefix("done: "), "Author-test relationships: 3")
	assert.Empty(t, rep.withPrefix("failed: "))
}

func TestLoader_RunOrder(t *testing.T) {
	exec := seededExecutor()
	l := newTestLoader(t, exec)

	l.Run(context.Background())

	q := exec.queries()
	require.Len(t, q, 16)
	assert.Equal(t, wipeQuery, q[0])
	assert.Contains(t, q[1], "CREATE (n:Role)")
	assert.Contains(t, q[2], "CREATE (n:User)")
	assert.Contains(t, q[3], "CREATE (n:Test)")
	assert.Contains(t, q[4], "HAS_ROLE")
	assert.Contains(t, q[5], "CREATED")
	assert.Equal(t, roleUserCountsQuery, q[6])
	assert.Equal(t, testCatalogQuery, q[7])
	assert.Equal(t, testsByAuthorQuery, q[8])
	assert.Equal(t, usersWithRoleQuery, q[9])
	assert.Contains(t, q[10], "(n:User)")
	assert.Contains(t, q[11], "(n:Test)")
	assert.Contains(t, q[12], "(n:Role)")
	assert.Contains(t, q[13], "User")
	assert.Contains(t, q[14], RelHasRole)
	assert.Contains(t, q[15], "DELETE")

	assert.Equal(t, "teacher", exec.calls[8].Params["username"])
	assert.Equal(t, "Student", exec.calls[9].Params["role"])
}

func TestLoader_RunReportsAroundEveryStep(t *testing.T) {
	rep := &recordingReporter{}
	l := newTestLoader(t, seededExecutor(), WithReporter(rep))

	l.Run(context.Background())

	// Every step line is followed, after any rows, by its done line before
	// the next step starts.
	open := false
	steps := 0
	for _, line := range rep.lines {
		switch {
		case strings.HasPrefix(line, "step: "):
			assert.False(t, open, "step started before previous finished: %s", line)
			open = true
			steps++
		case strings.HasPrefix(line, "done: "), strings.HasPrefix(line, "failed: "):
			assert.True(t, open, "finish without start: %s", line)
			open = false
		}
	}
	assert.False(t, open)
	assert.Equal(t, 13, steps)
}

func TestLoader_RunContinuesAfterFailures(t *testing.T) {
	exec := seededExecutor()
	// Rules are matched in order, so these shadow the successful answers.
	exec.rules = append([]rule{
		{Match: wipeQuery, Err: errors.New("connection reset")},
		{Match: "count(u) AS num", Err: errors.New("syntax error")},
		{Match: "MATCH (n:Test) RETURN count(n)", Err: errors.New("timeout")},
	}, exec.rules...)
	rep := &recordingReporter{}
	l := newTestLoader(t, exec, WithReporter(rep))

	s := l.Run(context.Background())

	assert.False(t, s.OK())
	assert.Equal(t, []string{"wipe", "query-role-counts", "query-totals"}, s.FailedSteps)
	assert.Len(t, exec.calls, 16)

	// Steps after the failures still ran and reported.
	assert.Equal(t, EdgeCounts{HasRole: 4, Created: 3}, s.Edges)
	assert.Equal(t, Totals{Users: 4, Tests: 0, Roles: 3}, s.Totals)
	assert.Contains(t, rep.withPrefix("done: "), "new_student removed")

	failed := rep.withPrefix("failed: ")
	require.Len(t, failed, 3)
	assert.True(t, strings.HasPrefix(failed[0], "Clearing database"))
}

func TestLoader_AddAndRetract(t *testing.T) {
	exec := &fakeExecutor{}
	l := newTestLoader(t, exec)

	require.NoError(t, l.AddAndRetract(context.Background()))

	q := exec.queries()
	require.Len(t, q, 3)
	assert.Contains(t, q[0], "CREATE")
	assert.Contains(t, q[1], RelHasRole)
	assert.Contains(t, q[2], "DELETE")
}

func TestLoader_AddAndRetractDeletesEvenIfInsertFails(t *testing.T) {
	exec := (&fakeExecutor{}).fail("CREATE", errors.New("constraint violation"))
	l := newTestLoader(t, exec)

	err := l.AddAndRetract(context.Background())

	require.Error(t, err)
	q := exec.queries()
	// The failed insert skips the relationship, the delete still runs.
	require.Len(t, q, 2)
	assert.Contains(t, q[1], "DELETE")
}

func TestLoader_SeedNodesAttemptsEveryLabel(t *testing.T) {
	exec := (&fakeExecutor{}).
		fail("CREATE (n:Role)", errors.New("boom")).
		on("CREATE (n:User)", scalar("created", int64(4))).
		on("CREATE (n:Test)", scalar("created", int64(3)))
	l := newTestLoader(t, exec)

	c, err := l.SeedNodes(context.Background())

	require.Error(t, err)
	assert.Equal(t, SeedCounts{Roles: 0, Users: 4, Tests: 3}, c)
	assert.Len(t, exec.calls, 3)
}

func TestLoader_SeedTestsStoresDates(t *testing.T) {
	exec := (&fakeExecutor{}).on("CREATE (n:Test)", scalar("created", int64(3)))
	l := newTestLoader(t, exec)

	_, err := l.SeedTests(context.Background())
	require.NoError(t, err)

	rowsParam := exec.calls[0].Params["rows"].([]map[string]any)
	require.Len(t, rowsParam, 3)
	_, isDate := rowsParam[0]["created"].(dbtype.Date)
	assert.True(t, isDate)
	assert.Equal(t, int64(2), rowsParam[0]["creatorId"])
}

func TestLoader_DeriveEdges(t *testing.T) {
	l := newTestLoader(t, seededExecutor())

	c, err := l.DeriveEdges(context.Background())

	require.NoError(t, err)
	assert.Equal(t, EdgeCounts{HasRole: 4, Created: 3}, c)
}

func TestLoader_RoleUserCountsScenario(t *testing.T) {
	l := newTestLoader(t, seededExecutor())

	seq, err := l.RoleUserCounts(context.Background())
	require.NoError(t, err)

	got := make(map[string]int64)
	for rc := range seq {
		got[rc.Role] = rc.Users
	}
	assert.Equal(t, map[string]int64{"Administrator": 1, "Test Author": 1, "Student": 2}, got)
}

func TestLoader_QueryFailureYieldsEmptySequence(t *testing.T) {
	exec := (&fakeExecutor{}).fail("AS pub", errors.New("boom"))
	l := newTestLoader(t, exec)

	seq, err := l.TestCatalog(context.Background())

	require.Error(t, err)
	assert.Empty(t, slices.Collect(seq))
}

func TestLoader_UndecodableRowsAreSkipped(t *testing.T) {
	exec := (&fakeExecutor{}).on("$role", rows([]string{"username", "firstName", "lastName"},
		[]any{"student1", "Alexey", "Sidorov"},
		[]any{"broken", nil, "Row"},
		[]any{"student2", "Olga", "Kuznetsova"},
	))
	logger, buf := bufferLogger()
	l := newTestLoader(t, exec, WithLoaderLogger(logger))

	seq, err := l.UsersWithRole(context.Background(), "Student")
	require.NoError(t, err)

	var names []string
	for m := range seq {
		names = append(names, m.Username)
	}
	assert.Equal(t, []string{"student1", "student2"}, names)
	assert.Contains(t, buf.String(), "skipping undecodable row")
}

func TestNewLoader_NilFixtures(t *testing.T) {
	_, err := NewLoader(&fakeExecutor{}, nil)

	assert.ErrorIs(t, err, ErrInvalidFixtures)
}

func TestLoader_RunQueriesOnly(t *testing.T) {
	exec := seededExecutor()
	rep := &recordingReporter{}
	l := newTestLoader(t, exec, WithReporter(rep))

	s := l.RunQueries(context.Background())

	assert.True(t, s.OK())
	assert.Equal(t, Totals{Users: 4, Tests: 3, Roles: 3}, s.Totals)
	assert.Len(t, exec.calls, 7)
	for _, q := range exec.queries() {
		assert.NotContains(t, q, "CREATE (")
		assert.NotContains(t, q, "DELETE")
	}
	assert.Equal(t, []string{"Running queries"}, rep.withPrefix("section: "))
}

func TestLoader_RunSharesAggregateSteps(t *testing.T) {
	viaRun := seededExecutor()
	s := newTestLoader(t, viaRun).Run(context.Background())

	direct := seededExecutor()
	l := newTestLoader(t, direct)
	seeded, err := l.SeedNodes(context.Background())
	require.NoError(t, err)
	edges, err := l.DeriveEdges(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.AddAndRetract(context.Background()))

	assert.Equal(t, s.Seeded, seeded)
	assert.Equal(t, s.Edges, edges)

	// Run = wipe, seed (3), derive (2), queries (7), add/retract (3).
	q := viaRun.queries()
	d := direct.queries()
	require.Len(t, d, 8)
	assert.Equal(t, q[1:6], d[:5])
	assert.Contains(t, d[5], "User")
	assert.Contains(t, d[6], RelHasRole)
	assert.Contains(t, d[7], "DELETE")
}

func TestLoader_AggregateFailuresStayQuiet(t *testing.T) {
	exec := (&fakeExecutor{}).fail("HAS_ROLE", errors.New("boom"))
	rep := &recordingReporter{}
	l := newTestLoader(t, exec, WithReporter(rep))

	_, err := l.DeriveEdges(context.Background())

	require.Error(t, err)
	assert.Len(t, exec.calls, 2)
	assert.Empty(t, rep.lines)
}
