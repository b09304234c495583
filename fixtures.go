package neoseed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/default.yaml
var defaultFixtures []byte

// Fixtures is the seed data for one run.
type Fixtures struct {
	Roles []Role `yaml:"roles"`
	Users []User `yaml:"users"`
	Tests []Test `yaml:"tests"`

	// Candidate is the user added and then retracted after the query phase.
	Candidate User `yaml:"candidate"`

	Queries QueryArgs `yaml:"queries"`
}

// QueryArgs holds the arguments of the parameterized read queries.
type QueryArgs struct {
	// Author is the username whose tests are listed.
	Author string `yaml:"author"`
	// Role is the role name whose members are listed.
	Role string `yaml:"role"`
}

// DefaultFixtures returns the built-in data set: three roles, four users,
// three tests.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// LoadFixtures reads fixtures from a YAML file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes and validates YAML fixtures.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixtures, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks id and username uniqueness. Dangling roleId or creatorId
// references are allowed; they simply produce no edge.
func (f *Fixtures) Validate() error {
	roleIDs := make(map[int64]bool, len(f.Roles))
	for _, r := range f.Roles {
		if roleIDs[r.RoleID] {
			return fmt.Errorf("%w: duplicate roleId %d", ErrInvalidFixtures, r.RoleID)
		}
		roleIDs[r.RoleID] = true
	}

	userIDs := make(map[int64]bool, len(f.Users))
	usernames := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		if userIDs[u.UserID] {
			return fmt.Errorf("%w: duplicate userId %d", ErrInvalidFixtures, u.UserID)
		}
		if u.Username == "" {
			return fmt.Errorf("%w: user %d has no username", ErrInvalidFixtures, u.UserID)
		}
		if usernames[u.Username] {
			return fmt.Errorf("%w: duplicate username %q", ErrInvalidFixtures, u.Username)
		}
		userIDs[u.UserID] = true
		usernames[u.Username] = true
	}

	testIDs := make(map[int64]bool, len(f.Tests))
	for _, t := range f.Tests {
		if testIDs[t.TestID] {
			return fmt.Errorf("%w: duplicate testId %d", ErrInvalidFixtures, t.TestID)
		}
		testIDs[t.TestID] = true
	}

	if f.Candidate.Username == "" {
		return fmt.Errorf("%w: candidate user is missing", ErrInvalidFixtures)
	}
	if userIDs[f.Candidate.UserID] || usernames[f.Candidate.Username] {
		return fmt.Errorf("%w: candidate user %d collides with a seeded user", ErrInvalidFixtures, f.Candidate.UserID)
	}
	return nil
}
