package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection is a user-named group of movies. Membership is many-to-many:
// removing a collection never removes its movies.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	DateCreated time.Time `json:"date_created"`
	Color       *string   `json:"color,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	MovieIDs    []string  `json:"movie_ids"`
}

// NewCollection returns a collection with a fresh id created at now.
func NewCollection(name string, now time.Time) Collection {
	return Collection{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		DateCreated: now,
		MovieIDs:    []string{},
	}
}

func (c Collection) MovieCount() int {
	return len(c.MovieIDs)
}

// Contains reports whether movieID is a member.
func (c Collection) Contains(movieID string) bool {
	return slices.Contains(c.MovieIDs, movieID)
}

// DisplayDescription renders the description or "No description".
func (c Collection) DisplayDescription() string {
	if c.Description == nil || strings.TrimSpace(*c.Description) == "" {
		return "No description"
	}
	return *c.Description
}

// DisplayIcon renders the icon or the "folder.fill" default.
func (c Collection) DisplayIcon() string {
	if c.Icon == nil || strings.TrimSpace(*c.Icon) == "" {
		return "folder.fill"
	}
	return *c.Icon
}

// Clone returns a deep copy.
func (c Collection) Clone() Collection {
	out := c
	out.Description = clonePtr(c.Description)
	out.Color = clonePtr(c.Color)
	out.Icon = clonePtr(c.Icon)
	out.MovieIDs = slices.Clone(c.MovieIDs)
	if out.MovieIDs == nil {
		out.MovieIDs = []string{}
	}
	return out
}

type collectionSeed struct {
	name, description, color, icon string
}

var defaultCollections = []collectionSeed{
	{"Action", "High-octane action movies", "#FF6B6B", "bolt.fill"},
	{"Comedy", "Light-hearted and funny movies", "#4ECDC4", "face.smiling.fill"},
	{"Drama", "Serious and emotional storytelling", "#45B7D1", "theatermasks.fill"},
	{"Horror", "Scary and thrilling movies", "#96CEB4", "eye.trianglebadge.exclamationmark.fill"},
	{"Sci-Fi", "Science fiction and futuristic movies", "#FFEAA7", "sparkles"},
	{"Romance", "Love stories and romantic movies", "#FD79A8", "heart.fill"},
}

// DefaultCollections returns the genre collections seeded into an empty library.
func DefaultCollections(now time.Time) []Collection {
	out := make([]Collection, 0, len(defaultCollections))
	for _, seed := range defaultCollections {
		c := NewCollection(seed.name, now)
		c.Description = Str(seed.description)
		c.Color = Str(seed.color)
		c.Icon = Str(seed.icon)
		out = append(out, c)
	}
	return out
}
