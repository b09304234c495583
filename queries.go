package neoseed

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"
)

const (
	wipeQuery = "MATCH (n) DETACH DELETE n"

	roleUserCountsQuery = `MATCH (u:User)-[:HAS_ROLE]->(r:Role)
WITH r, count(u) AS num
ORDER BY r.roleId
RETURN r.name AS role, num`

	testCatalogQuery = `MATCH (u:User)-[:CREATED]->(t:Test)
RETURN t.title AS test, u.username AS author, t.created AS created, t.published AS pub
ORDER BY t.testId`

	testsByAuthorQuery = `MATCH (:User {username: $username})-[:CREATED]->(t:Test)
RETURN t.title AS test, t.timeLimit AS tlimit
ORDER BY t.testId`

	usersWithRoleQuery = `MATCH (u:User)-[:HAS_ROLE]->(:Role {name: $role})
RETURN u.username AS username, u.firstName AS firstName, u.lastName AS lastName
ORDER BY u.userId`
)

// RoleCount is the number of users holding one role.
type RoleCount struct {
	Role  string
	Users int64
}

// TestSummary is a test together with its author and publication metadata.
type TestSummary struct {
	Title     string
	Author    string
	Created   time.Time
	Published bool
}

// AuthoredTest is a test listed for its author.
type AuthoredTest struct {
	Title     string
	TimeLimit int64
}

// RoleMember is a user holding a given role.
type RoleMember struct {
	Username  string
	FirstName string
	LastName  string
}

// Totals holds the node count per label.
type Totals struct {
	Users int64
	Tests int64
	Roles int64
}

// RoleUserCounts returns how many users hold each role, ordered by roleId.
func (l *Loader) RoleUserCounts(ctx context.Context) (iter.Seq[RoleCount], error) {
	res := l.exec.Execute(ctx, roleUserCountsQuery, nil)
	return decodeRows(res, l.logger, func(r Record) (RoleCount, error) {
		var rc RoleCount
		var err error
		if rc.Role, err = r.String("role"); err != nil {
			return rc, err
		}
		rc.Users, err = r.Int("num")
		return rc, err
	}), res.Err()
}

// TestCatalog returns every test joined with its creator.
func (l *Loader) TestCatalog(ctx context.Context) (iter.Seq[TestSummary], error) {
	res := l.exec.Execute(ctx, testCatalogQuery, nil)
	return decodeRows(res, l.logger, func(r Record) (TestSummary, error) {
		var ts TestSummary
		var err error
		if ts.Title, err = r.String("test"); err != nil {
			return ts, err
		}
		if ts.Author, err = r.String("author"); err != nil {
			return ts, err
		}
		if ts.Created, err = r.Date("created"); err != nil {
			return ts, err
		}
		ts.Published, err = r.Bool("pub")
		return ts, err
	}), res.Err()
}

// TestsByAuthor returns the tests created by the user with the given username.
func (l *Loader) TestsByAuthor(ctx context.Context, username string) (iter.Seq[AuthoredTest], error) {
	res := l.exec.Execute(ctx, testsByAuthorQuery, map[string]any{"username": username})
	return decodeRows(res, l.logger, func(r Record) (AuthoredTest, error) {
		var at AuthoredTest
		var err error
		if at.Title, err = r.String("test"); err != nil {
			return at, err
		}
		at.TimeLimit, err = r.Int("tlimit")
		return at, err
	}), res.Err()
}

// UsersWithRole returns the users holding the role with the given name.
func (l *Loader) UsersWithRole(ctx context.Context, role string) (iter.Seq[RoleMember], error) {
	res := l.exec.Execute(ctx, usersWithRoleQuery, map[string]any{"role": role})
	return decodeRows(res, l.logger, func(r Record) (RoleMember, error) {
		var m RoleMember
		var err error
		if m.Username, err = r.String("username"); err != nil {
			return m, err
		}
		if m.FirstName, err = r.String("firstName"); err != nil {
			return m, err
		}
		m.LastName, err = r.String("lastName")
		return m, err
	}), res.Err()
}

// Totals counts users, tests and roles with three independent queries. A
// failed count stays zero and its error is joined into the returned error.
func (l *Loader) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	var errs []error

	n, err := l.users.Count(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("count users: %w", err))
	}
	t.Users = n

	n, err = l.tests.Count(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("count tests: %w", err))
	}
	t.Tests = n

	n, err = l.roles.Count(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("count roles: %w", err))
	}
	t.Roles = n

	return t, errors.Join(errs...)
}

// decodeRows lazily maps records to T. Rows that fail to decode are logged
// and skipped.
func decodeRows[T any](res Result, logger *slog.Logger, decode func(Record) (T, error)) iter.Seq[T] {
	return func(yield func(T) bool) {
		for rec := range res.Rows() {
			v, err := decode(rec)
			if err != nil {
				logger.Warn("skipping undecodable row", "error", err)
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}
