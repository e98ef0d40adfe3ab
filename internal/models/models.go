// package models defines the entities of the music generation studio and the
// persistence contracts the repositories implement.
package models

import (
	"time"
)

// Model is the base contract for persistent entities. Songs, playlists, jobs,
// references, and users all satisfy it; repositories depend on nothing else.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Repository defines standard CRUD over one entity type. List criteria are
// column/value pairs ANDed together; implementations exclude soft-deleted
// rows by default.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}
