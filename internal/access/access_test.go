package access

import (
	"testing"

	"gas-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var (
	alice = &models.User{ID: 1, Username: "alice"}
	bob   = &models.User{ID: 2, Username: "bob"}
)

func carOf(owner *models.User) *models.Car {
	return &models.Car{ID: uuid.New(), Make: "Honda", Model: "Fit", Year: "2012", OwnerID: owner.ID}
}

func tollOn(car *models.Car, owner int64) *models.Toll {
	return &models.Toll{EntryBase: models.EntryBase{
		ID:      uuid.New(),
		CarID:   uuid.NullUUID{UUID: car.ID, Valid: true},
		OwnerID: owner,
	}}
}

func TestCar(t *testing.T) {
	car := carOf(alice)

	assert.NoError(t, Car(alice, car))
	assert.ErrorIs(t, Car(bob, car), ErrForbidden)
	assert.ErrorIs(t, Car(nil, car), ErrUnauthenticated)
	assert.ErrorIs(t, Car(alice, nil), ErrNotFound)
}

func TestCarEntries(t *testing.T) {
	car := carOf(alice)
	entries := []models.Entry{tollOn(car, alice.ID), tollOn(car, alice.ID)}

	assert.NoError(t, CarEntries(alice, car, entries))
	assert.NoError(t, CarEntries(alice, car, nil))
	assert.ErrorIs(t, CarEntries(bob, car, entries), ErrForbidden)

	drifted := append(entries, tollOn(car, bob.ID))
	assert.ErrorIs(t, CarEntries(alice, car, drifted), ErrForbidden)
}

func TestEntry(t *testing.T) {
	aliceCar := carOf(alice)
	bobCar := carOf(bob)

	tests := []struct {
		name  string
		actor *models.User
		car   *models.Car
		entry models.Entry
		want  error
	}{
		{"owner of car and entry", alice, aliceCar, tollOn(aliceCar, alice.ID), nil},
		{"stranger", bob, aliceCar, tollOn(aliceCar, alice.ID), ErrForbidden},
		{"stranger with own entry id on foreign car", bob, aliceCar, tollOn(aliceCar, bob.ID), ErrForbidden},
		{"car owner but drifted entry owner", alice, aliceCar, tollOn(aliceCar, bob.ID), ErrForbidden},
		{"entry owner but car owned by someone else", alice, bobCar, tollOn(bobCar, alice.ID), ErrForbidden},
		{"orphaned entry", alice, nil, tollOn(aliceCar, alice.ID), ErrForbidden},
		{"unauthenticated", nil, aliceCar, tollOn(aliceCar, alice.ID), ErrUnauthenticated},
		{"missing entry", alice, aliceCar, nil, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Entry(tt.actor, tt.car, tt.entry)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestEntryOnRoute(t *testing.T) {
	aliceCar := carOf(alice)
	otherAliceCar := carOf(alice)
	entry := tollOn(aliceCar, alice.ID)

	assert.NoError(t, EntryOnRoute(alice, aliceCar.ID, aliceCar, entry))
	assert.ErrorIs(t, EntryOnRoute(alice, otherAliceCar.ID, aliceCar, entry), ErrNotFound)
	assert.ErrorIs(t, EntryOnRoute(bob, aliceCar.ID, aliceCar, entry), ErrForbidden)
}
