// Package seed loads demo data through the services so every reference
// between users and thoughts stays consistent.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/default.yaml
var defaultFixture []byte

// Fixture describes users, their thoughts and friendships by username.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
}

type FixtureUser struct {
	Username string           `yaml:"username"`
	Email    string           `yaml:"email"`
	Friends  []string         `yaml:"friends"`
	Thoughts []FixtureThought `yaml:"thoughts"`
}

type FixtureThought struct {
	Text      string            `yaml:"text"`
	Reactions []FixtureReaction `yaml:"reactions"`
}

type FixtureReaction struct {
	Body     string `yaml:"body"`
	Username string `yaml:"username"`
}

// DefaultFixture returns the built-in demo network.
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(defaultFixture)
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture and checks that every friend refers
// to a user declared in it.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	declared := make(map[string]struct{}, len(f.Users))
	for _, u := range f.Users {
		if _, dup := declared[u.Username]; dup {
			return nil, fmt.Errorf("fixture declares user %q twice", u.Username)
		}
		declared[u.Username] = struct{}{}
	}
	for _, u := range f.Users {
		for _, friend := range u.Friends {
			if _, ok := declared[friend]; !ok {
				return nil, fmt.Errorf("user %q lists unknown friend %q", u.Username, friend)
			}
		}
	}
	return &f, nil
}
