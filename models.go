package neoseed

import "time"

// Relationship types derived by the loader.
const (
	RelHasRole = "HAS_ROLE"
	RelCreated = "CREATED"
)

// Role is a :Role node.
type Role struct {
	RoleID int64  `yaml:"roleId" json:"roleId" graph:"roleId,pk"`
	Name   string `yaml:"name" json:"name" graph:"name"`
}

// User is a :User node. RoleID references Role.RoleID.
type User struct {
	UserID    int64  `yaml:"userId" json:"userId" graph:"userId,pk"`
	Username  string `yaml:"username" json:"username" graph:"username"`
	Email     string `yaml:"email" json:"email" graph:"email"`
	FirstName string `yaml:"firstName" json:"firstName" graph:"firstName"`
	LastName  string `yaml:"lastName" json:"lastName" graph:"lastName"`
	Active    bool   `yaml:"active" json:"active" graph:"active"`
	RoleID    int64  `yaml:"roleId" json:"roleId" graph:"roleId"`
}

// Test is a :Test node, an assessment definition. CreatorID references
// User.UserID. Created is stored as a DATE.
type Test struct {
	TestID      int64     `yaml:"testId" json:"testId" graph:"testId,pk"`
	Title       string    `yaml:"title" json:"title" graph:"title"`
	Description string    `yaml:"description" json:"description" graph:"description"`
	CreatorID   int64     `yaml:"creatorId" json:"creatorId" graph:"creatorId"`
	Created     time.Time `yaml:"created" json:"created" graph:"created,date"`
	TimeLimit   int64     `yaml:"timeLimit" json:"timeLimit" graph:"timeLimit"`
	Published   bool      `yaml:"published" json:"published" graph:"published"`
	PassScore   int64     `yaml:"passScore" json:"passScore" graph:"passScore"`
}

// GraphNode is a label/property view of any node, keyed by its element id.
type GraphNode struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Edge is a relationship between two GraphNodes.
type Edge struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// GraphResult is a de-duplicated set of nodes and edges, in the shape most
// graph visualisation front ends consume.
type GraphResult struct {
	Nodes []*GraphNode `json:"nodes"`
	Edges []*Edge      `json:"edges"`
}
