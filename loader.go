package neoseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SeedCounts holds the number of nodes created per label.
type SeedCounts struct {
	Roles int64
	Users int64
	Tests int64
}

// EdgeCounts holds the number of derived relationships per type.
type EdgeCounts struct {
	HasRole int64
	Created int64
}

// Summary is what a full Run produced. Steps that failed are listed by name;
// the run itself never stops early.
type Summary struct {
	Seeded      SeedCounts
	Edges       EdgeCounts
	Totals      Totals
	FailedSteps []string
}

// OK reports whether every step succeeded.
func (s Summary) OK() bool {
	return len(s.FailedSteps) == 0
}

// Loader drives the wipe, seed, link, query and add/retract workflow through
// an Executor. It holds no connection state of its own.
type Loader struct {
	exec      Executor
	fixtures  *Fixtures
	relations *RelationManager
	roles     *Repository[Role]
	users     *Repository[User]
	tests     *Repository[Test]
	report    Reporter
	logger    *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithReporter sets where progress lines go. Defaults to NopReporter.
func WithReporter(r Reporter) LoaderOption {
	return func(l *Loader) {
		if r != nil {
			l.report = r
		}
	}
}

// WithLoaderLogger sets the logger for decode warnings.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader binds a Loader to exec and the given seed data.
func NewLoader(exec Executor, fixtures *Fixtures, opts ...LoaderOption) (*Loader, error) {
	if fixtures == nil {
		return nil, fmt.Errorf("%w: nil fixtures", ErrInvalidFixtures)
	}

	l := &Loader{
		exec:      exec,
		fixtures:  fixtures,
		relations: NewRelationManager(exec),
		report:    NopReporter{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	var err error
	if l.roles, err = RepositoryFor[Role](l.relations); err != nil {
		return nil, err
	}
	if l.users, err = RepositoryFor[User](l.relations); err != nil {
		return nil, err
	}
	if l.tests, err = RepositoryFor[Test](l.relations); err != nil {
		return nil, err
	}
	return l, nil
}

// Relations exposes the loader's RelationManager.
func (l *Loader) Relations() *RelationManager {
	return l.relations
}

// Wipe deletes every node and relationship.
func (l *Loader) Wipe(ctx context.Context) Result {
	return l.exec.Execute(ctx, wipeQuery, nil)
}

// SeedRoles inserts the fixture roles in one statement.
func (l *Loader) SeedRoles(ctx context.Context) (int64, error) {
	return l.roles.CreateAll(ctx, l.fixtures.Roles)
}

// SeedUsers inserts the fixture users in one statement.
func (l *Loader) SeedUsers(ctx context.Context) (int64, error) {
	return l.users.CreateAll(ctx, l.fixtures.Users)
}

// SeedTests inserts the fixture tests in one statement.
func (l *Loader) SeedTests(ctx context.Context) (int64, error) {
	return l.tests.CreateAll(ctx, l.fixtures.Tests)
}

// stepFunc runs one named unit of work. The Loader passes either a plain
// runner that only collects errors or one that also reports progress.
type stepFunc func(name, before string, fn func() (string, error))

// collect returns a stepFunc that runs each step silently and appends its
// error to errs.
func collect(errs *[]error) stepFunc {
	return func(_, _ string, fn func() (string, error)) {
		if _, err := fn(); err != nil {
			*errs = append(*errs, err)
		}
	}
}

// reporting returns a stepFunc that reports before and after each step and
// records failures in s.
func (l *Loader) reporting(s *Summary) stepFunc {
	return func(name, before string, fn func() (string, error)) {
		l.report.Step(before)
		after, err := fn()
		if err != nil {
			l.report.Failed(before, err)
			s.FailedSteps = append(s.FailedSteps, name)
			return
		}
		l.report.Done(after)
	}
}

// SeedNodes inserts roles, then users, then tests. Every label is attempted
// even if an earlier one failed.
func (l *Loader) SeedNodes(ctx context.Context) (SeedCounts, error) {
	var c SeedCounts
	var errs []error
	l.seedNodes(ctx, &c, collect(&errs))
	return c, errors.Join(errs...)
}

func (l *Loader) seedNodes(ctx context.Context, c *SeedCounts, step stepFunc) {
	step("seed-roles", "Creating roles", func() (string, error) {
		var err error
		c.Roles, err = l.SeedRoles(ctx)
		return fmt.Sprintf("Roles created: %d", c.Roles), err
	})
	step("seed-users", "Creating users", func() (string, error) {
		var err error
		c.Users, err = l.SeedUsers(ctx)
		return fmt.Sprintf("Users created: %d", c.Users), err
	})
	step("seed-tests", "Creating tests", func() (string, error) {
		var err error
		c.Tests, err = l.SeedTests(ctx)
		return fmt.Sprintf("Tests created: %d", c.Tests), err
	})
}

// DeriveEdges creates HAS_ROLE and CREATED relationships from the roleId and
// creatorId attributes. Both are attempted even if the first fails.
func (l *Loader) DeriveEdges(ctx context.Context) (EdgeCounts, error) {
	var c EdgeCounts
	var errs []error
	l.deriveEdges(ctx, &c, collect(&errs))
	return c, errors.Join(errs...)
}

func (l *Loader) deriveEdges(ctx context.Context, c *EdgeCounts, step stepFunc) {
	step("derive-has-role", "Linking users to roles", func() (string, error) {
		var err error
		c.HasRole, err = l.relations.Derive(ctx, HasRoleDerivation)
		return fmt.Sprintf("User-role relationships: %d", c.HasRole), err
	})
	step("derive-created", "Linking authors to tests", func() (string, error) {
		var err error
		c.Created, err = l.relations.Derive(ctx, CreatedDerivation)
		return fmt.Sprintf("Author-test relationships: %d", c.Created), err
	})
}

// AddCandidate inserts the candidate user and links it to its role.
func (l *Loader) AddCandidate(ctx context.Context) error {
	u := l.fixtures.Candidate
	if err := l.users.Create(ctx, &u); err != nil {
		return err
	}
	return l.relations.CreateRelation(ctx, &u, &Role{RoleID: u.RoleID}, RelHasRole, nil)
}

// RetractCandidate deletes the candidate user and its relationships.
func (l *Loader) RetractCandidate(ctx context.Context) error {
	return l.users.Delete(ctx, l.fixtures.Candidate.UserID)
}

// AddAndRetract adds the candidate user with its HAS_ROLE edge and then
// deletes it again. The deletion runs even if the insert failed.
func (l *Loader) AddAndRetract(ctx context.Context) error {
	var errs []error
	l.addAndRetract(ctx, collect(&errs))
	return errors.Join(errs...)
}

func (l *Loader) addAndRetract(ctx context.Context, step stepFunc) {
	candidate := l.fixtures.Candidate.Username
	step("add-candidate", fmt.Sprintf("Adding user %s", candidate), func() (string, error) {
		return fmt.Sprintf("%s added", candidate), l.AddCandidate(ctx)
	})
	step("retract-candidate", fmt.Sprintf("Removing user %s", candidate), func() (string, error) {
		return fmt.Sprintf("%s removed", candidate), l.RetractCandidate(ctx)
	})
}

// Run executes the whole workflow in order: wipe, seed, derive, query,
// add/retract. A failing step is reported and recorded in the summary, and
// the next step runs regardless. Closing the connection is left to whoever
// opened it.
func (l *Loader) Run(ctx context.Context) Summary {
	var s Summary
	step := l.reporting(&s)

	l.report.Section("Creating test data")
	step("wipe", "Clearing database", func() (string, error) {
		return "Database cleared", l.Wipe(ctx).Err()
	})
	l.seedNodes(ctx, &s.Seeded, step)

	l.report.Section("Creating relationships")
	l.deriveEdges(ctx, &s.Edges, step)

	l.report.Section("Running queries")
	l.queries(ctx, &s, step)

	l.report.Section("Add and remove")
	l.addAndRetract(ctx, step)

	return s
}

// RunQueries runs only the read queries against whatever the database
// currently holds.
func (l *Loader) RunQueries(ctx context.Context) Summary {
	var s Summary
	l.report.Section("Running queries")
	l.queries(ctx, &s, l.reporting(&s))
	return s
}

func (l *Loader) queries(ctx context.Context, s *Summary, step stepFunc) {
	step("query-role-counts", "User statistics", func() (string, error) {
		rows, err := l.RoleUserCounts(ctx)
		n := 0
		for rc := range rows {
			l.report.Row("%s: %d", rc.Role, rc.Users)
			n++
		}
		return rowsDone(n), err
	})
	step("query-test-catalog", "Test list", func() (string, error) {
		rows, err := l.TestCatalog(ctx)
		n := 0
		for ts := range rows {
			l.report.Row("%s (author: %s, date: %s, published: %t)",
				ts.Title, ts.Author, ts.Created.Format("2006-01-02"), ts.Published)
			n++
		}
		return rowsDone(n), err
	})
	author := l.fixtures.Queries.Author
	step("query-tests-by-author", fmt.Sprintf("Tests by %s", author), func() (string, error) {
		rows, err := l.TestsByAuthor(ctx, author)
		n := 0
		for at := range rows {
			l.report.Row("%s - %d min", at.Title, at.TimeLimit)
			n++
		}
		return rowsDone(n), err
	})
	role := l.fixtures.Queries.Role
	step("query-users-with-role", fmt.Sprintf("Users with role %s", role), func() (string, error) {
		rows, err := l.UsersWithRole(ctx, role)
		n := 0
		for m := range rows {
			l.report.Row("%s: %s %s", m.Username, m.FirstName, m.LastName)
			n++
		}
		return rowsDone(n), err
	})
	step("query-totals", "Totals", func() (string, error) {
		var err error
		s.Totals, err = l.Totals(ctx)
		l.report.Row("Users: %d", s.Totals.Users)
		l.report.Row("Tests: %d", s.Totals.Tests)
		l.report.Row("Roles: %d", s.Totals.Roles)
		return "Totals computed", err
	})
}

func rowsDone(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
