package handlers

import (
	"fmt"
	"net/http"

	"gas-tracker/internal/access"
	"gas-tracker/internal/forms"
	"gas-tracker/internal/metrics"
	"gas-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntriesViewModel holds data for a car-scoped entry list.
type EntriesViewModel struct {
	Car        models.Car
	Kind       models.EntryKind
	Entries    []models.Entry
	Tanks      map[string]decimal.Decimal
	Pagination Pagination
	Total      int
}

// EntryFormViewModel holds data for the entry create and update forms.
type EntryFormViewModel struct {
	Kind   models.EntryKind
	Input  forms.EntryInput
	Errors forms.FieldErrors
	Cars   []models.Car
	Action string
	Cancel string
	IsEdit bool
}

// ListEntries returns a handler for the paginated entry list of one kind.
func (h *Handlers) ListEntries(kind models.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		car, err := h.ownedCar(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		page, n := h.page(r)
		entries, err := h.db.ListEntries(r.Context(), kind, car.ID, page)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if err := access.CarEntries(GetUserFromContext(r), car, entries); err != nil {
			h.fail(w, r, err)
			return
		}
		// Entries outside the requested page count too.
		foreign, err := h.db.CountForeignOwnedEntries(r.Context(), kind, car.ID, car.OwnerID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if foreign > 0 {
			h.fail(w, r, access.ErrForbidden)
			return
		}
		total, err := h.db.CountEntries(r.Context(), kind, car.ID)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		vm := EntriesViewModel{
			Car:        *car,
			Kind:       kind,
			Entries:    entries,
			Pagination: h.pagination(n, total),
			Total:      total,
		}
		if kind == models.KindGasPurchase {
			siblings, err := h.db.ListGasPurchases(r.Context(), car.ID)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			shown := make([]models.GasPurchase, 0, len(entries))
			for _, e := range entries {
				shown = append(shown, *e.(*models.GasPurchase))
			}
			vm.Tanks = metrics.TankFuelEconomies(shown, siblings)
		}
		h.render(w, r, "entries.html", vm)
	}
}

// CreateEntryForm returns a handler rendering the creation form of one kind.
// A ?car= query preselects the vehicle.
func (h *Handlers) CreateEntryForm(kind models.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r)
		if user == nil {
			h.fail(w, r, access.ErrUnauthenticated)
			return
		}
		cars, err := h.db.ListCarsByOwner(r.Context(), user.ID)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		vehicle := r.URL.Query().Get("car")
		if vehicle == "" && len(cars) == 1 {
			vehicle = cars[0].ID.String()
		}
		h.render(w, r, "entry_form.html", EntryFormViewModel{
			Kind:   kind,
			Input:  forms.BlankEntryInput(kind, vehicle, h.now(), h.location(r)),
			Cars:   cars,
			Action: AddPath(kind),
			Cancel: "/cars",
		})
	}
}

// CreateEntry returns a handler for the creation form submission of one kind.
func (h *Handlers) CreateEntry(kind models.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r)
		if user == nil {
			h.fail(w, r, access.ErrUnauthenticated)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		cars, err := h.db.ListCarsByOwner(r.Context(), user.ID)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		in := forms.EntryInputFromForm(kind, r.PostForm)
		entry, fe := in.Validate(h.location(r), cars)
		if fe.Any() {
			h.renderStatus(w, r, http.StatusBadRequest, "entry_form.html", EntryFormViewModel{
				Kind:   kind,
				Input:  in,
				Errors: fe,
				Cars:   cars,
				Action: AddPath(kind),
				Cancel: "/cars",
			})
			return
		}
		if err := h.db.CreateEntry(r.Context(), entry); err != nil {
			h.fail(w, r, err)
			return
		}

		b := entry.Base()
		h.logger.WithField("user_id", user.ID).WithField("kind", kind).WithField("entry_id", b.ID).Info("entry created")
		h.redirect(w, r, "/car/"+b.CarID.UUID.String()+"/")
	}
}

// UpdateEntryForm renders the update form of the entry named by the route.
func (h *Handlers) UpdateEntryForm(w http.ResponseWriter, r *http.Request) {
	car, entry, err := h.ownedEntry(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cars, err := h.db.ListCarsByOwner(r.Context(), car.OwnerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "entry_form.html", EntryFormViewModel{
		Kind:   entry.Kind(),
		Input:  forms.EntryInputFromEntry(entry, h.location(r)),
		Cars:   cars,
		Action: EntryPath(entry, "update"),
		Cancel: CarPath(*car),
		IsEdit: true,
	})
}

// UpdateEntry handles the update form submission. The entry keeps its id and
// its stored owner; it may be moved to another of the actor's cars.
func (h *Handlers) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	car, entry, err := h.ownedEntry(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	cars, err := h.db.ListCarsByOwner(r.Context(), car.OwnerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	in := forms.EntryInputFromForm(entry.Kind(), r.PostForm)
	updated, fe := in.Validate(h.location(r), cars)
	if fe.Any() {
		h.renderStatus(w, r, http.StatusBadRequest, "entry_form.html", EntryFormViewModel{
			Kind:   entry.Kind(),
			Input:  in,
			Errors: fe,
			Cars:   cars,
			Action: EntryPath(entry, "update"),
			Cancel: CarPath(*car),
			IsEdit: true,
		})
		return
	}

	b := updated.Base()
	b.ID = entry.Base().ID
	b.OwnerID = entry.Base().OwnerID
	if err := h.db.UpdateEntry(r.Context(), updated); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, "/car/"+b.CarID.UUID.String()+"/")
}

// DeleteEntryForm asks for confirmation before deleting an entry.
func (h *Handlers) DeleteEntryForm(w http.ResponseWriter, r *http.Request) {
	car, entry, err := h.ownedEntry(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "confirm_delete.html", ConfirmDeleteViewModel{
		Title:  fmt.Sprintf("Delete this %s of %s?", entry.Kind().Label(), car),
		Action: EntryPath(entry, "delete"),
		Cancel: CarPath(*car),
	})
}

// DeleteEntry removes the entry named by the route.
func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	car, entry, err := h.ownedEntry(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.db.DeleteEntry(r.Context(), entry.Kind(), entry.Base().ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, CarPath(*car))
}

// ownedEntry loads the entry and car named by the route and applies the
// entry access predicate.
func (h *Handlers) ownedEntry(r *http.Request) (*models.Car, models.Entry, error) {
	user := GetUserFromContext(r)
	if user == nil {
		return nil, nil, access.ErrUnauthenticated
	}
	kind, err := models.ParseEntryKind(r.PathValue("kind"))
	if err != nil {
		return nil, nil, access.ErrNotFound
	}
	carID, err := uuid.Parse(r.PathValue("car_id"))
	if err != nil {
		return nil, nil, access.ErrNotFound
	}
	entryID, err := uuid.Parse(r.PathValue("entry_id"))
	if err != nil {
		return nil, nil, access.ErrNotFound
	}

	entry, err := h.db.GetEntry(r.Context(), kind, entryID)
	if err != nil {
		return nil, nil, err
	}
	var car *models.Car
	if b := entry.Base(); b.CarID.Valid {
		if car, err = h.db.GetCar(r.Context(), b.CarID.UUID); err != nil {
			return nil, nil, err
		}
	}
	if err := access.EntryOnRoute(user, carID, car, entry); err != nil {
		return nil, nil, err
	}
	return car, entry, nil
}
