// Package access decides whether an authenticated user may read or change a
// car or one of its expense entries. The acting user is always passed in
// explicitly; nothing here reads request state.
package access

import (
	"errors"

	"gas-tracker/internal/models"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
)

var (
	// ErrUnauthenticated means no user is logged in.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the user is logged in but does not own the resource.
	ErrForbidden = errors.New("access denied")
	// ErrNotFound means the resource does not exist or is not reachable
	// through the requested route.
	ErrNotFound = errors.New("not found")
)

// Car allows access only to the car's owner.
func Car(actor *models.User, car *models.Car) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if car == nil {
		return ErrNotFound
	}
	if car.OwnerID != actor.ID {
		return ErrForbidden
	}
	return nil
}

// CarEntries guards a car-scoped entry list. The actor must own the car and
// every listed entry must carry the actor as its stored owner.
func CarEntries(actor *models.User, car *models.Car, entries []models.Entry) error {
	if err := Car(actor, car); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Base().OwnerID != actor.ID {
			return ErrForbidden
		}
	}
	return nil
}

// Entry guards an entry reached by its id. car is the car the entry belongs
// to, or nil when the entry has been orphaned. The car owner, the actor and
// the entry's stored owner must all be the same user.
func Entry(actor *models.User, car *models.Car, entry models.Entry) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if entry == nil {
		return ErrNotFound
	}
	if car == nil {
		return ErrForbidden
	}
	owners := mapset.NewThreadUnsafeSet(car.OwnerID, actor.ID, entry.Base().OwnerID)
	if owners.Cardinality() != 1 {
		return ErrForbidden
	}
	return nil
}

// EntryOnRoute is Entry for routes that also name the car. An entry that
// belongs to a different car than routeCarID is reported as not found.
func EntryOnRoute(actor *models.User, routeCarID uuid.UUID, car *models.Car, entry models.Entry) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if entry == nil {
		return ErrNotFound
	}
	if b := entry.Base(); b.CarID.Valid && b.CarID.UUID != routeCarID {
		return ErrNotFound
	}
	return Entry(actor, car, entry)
}
