package handlers

import (
	"context"
	"fmt"
	"net/http"

	"gas-tracker/internal/access"
	"gas-tracker/internal/forms"
	"gas-tracker/internal/metrics"
	"gas-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// recentLimit is how many entries of each kind the car detail page shows.
const recentLimit = 5

// CarsViewModel holds data for the car list.
type CarsViewModel struct {
	Cars     []models.Car
	Orphaned []models.Entry
}

// CarDetailViewModel holds data for a single car and its metrics.
type CarDetailViewModel struct {
	Car         models.Car
	Summary     metrics.Summary
	Gas         []models.Entry
	Maintenance []models.Entry
	Tolls       []models.Entry
	Tanks       map[string]decimal.Decimal
	Kinds       []models.EntryKind
}

// CarFormViewModel holds data for the add-car and car-update forms.
type CarFormViewModel struct {
	Input  forms.CarInput
	Errors forms.FieldErrors
	Car    *models.Car
}

// ConfirmDeleteViewModel holds data for a delete confirmation page.
type ConfirmDeleteViewModel struct {
	Title  string
	Action string
	Cancel string
}

// ListCars renders the actor's cars.
func (h *Handlers) ListCars(w http.ResponseWriter, r *http.Request) {
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

	var orphaned []models.Entry
	for _, kind := range models.EntryKinds {
		entries, err := h.db.ListOrphanedEntries(r.Context(), kind, user.ID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		orphaned = append(orphaned, entries...)
	}

	h.render(w, r, "cars.html", CarsViewModel{Cars: cars, Orphaned: orphaned})
}

// CarDetail renders a car with its aggregate metrics and latest entries.
func (h *Handlers) CarDetail(w http.ResponseWriter, r *http.Request) {
	car, err := h.ownedCar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rec, err := h.loadRecords(r.Context(), car)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	vm := CarDetailViewModel{
		Car:     *car,
		Summary: metrics.Summarize(rec),
		Kinds:   models.EntryKinds,
	}
	for i := range rec.Gas {
		vm.Gas = append(vm.Gas, &rec.Gas[i])
	}
	for i := range rec.Maintenance {
		vm.Maintenance = append(vm.Maintenance, &rec.Maintenance[i])
	}
	for i := range rec.Tolls {
		vm.Tolls = append(vm.Tolls, &rec.Tolls[i])
	}

	all := make([]models.Entry, 0, len(vm.Gas)+len(vm.Maintenance)+len(vm.Tolls))
	all = append(append(append(all, vm.Gas...), vm.Maintenance...), vm.Tolls...)
	if err := access.CarEntries(GetUserFromContext(r), car, all); err != nil {
		h.fail(w, r, err)
		return
	}

	recentGas := rec.Gas[:min(recentLimit, len(rec.Gas))]
	vm.Tanks = metrics.TankFuelEconomies(recentGas, rec.Gas)
	vm.Gas = vm.Gas[:len(recentGas)]
	vm.Maintenance = vm.Maintenance[:min(recentLimit, len(vm.Maintenance))]
	vm.Tolls = vm.Tolls[:min(recentLimit, len(vm.Tolls))]

	h.render(w, r, "car_detail.html", vm)
}

// CreateCarForm renders the add-car form.
func (h *Handlers) CreateCarForm(w http.ResponseWriter, r *http.Request) {
	in := forms.CarInput{PurchaseDate: h.now().In(h.location(r)).Format(forms.DateLayout), PurchasePrice: "0.00"}
	h.render(w, r, "car_form.html", CarFormViewModel{Input: in})
}

// CreateCar handles the add-car form submission.
func (h *Handlers) CreateCar(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	if user == nil {
		h.fail(w, r, access.ErrUnauthenticated)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	in := forms.CarInputFromForm(r.PostForm)
	car, fe := in.Validate()
	if fe.Any() {
		h.renderStatus(w, r, http.StatusBadRequest, "car_form.html", CarFormViewModel{Input: in, Errors: fe})
		return
	}
	car.OwnerID = user.ID
	if err := h.db.CreateCar(r.Context(), &car); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.WithField("user_id", user.ID).WithField("car_id", car.ID).Info("car created")
	h.redirect(w, r, CarPath(car))
}

// UpdateCarForm renders the car-update form.
func (h *Handlers) UpdateCarForm(w http.ResponseWriter, r *http.Request) {
	car, err := h.ownedCar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "car_form.html", CarFormViewModel{Input: forms.CarInputFromCar(*car), Car: car})
}

// UpdateCar handles the car-update form submission. The owner is kept.
func (h *Handlers) UpdateCar(w http.ResponseWriter, r *http.Request) {
	car, err := h.ownedCar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	in := forms.CarInputFromForm(r.PostForm)
	updated, fe := in.Validate()
	if fe.Any() {
		h.renderStatus(w, r, http.StatusBadRequest, "car_form.html", CarFormViewModel{Input: in, Errors: fe, Car: car})
		return
	}
	updated.ID = car.ID
	updated.OwnerID = car.OwnerID
	if err := h.db.UpdateCar(r.Context(), &updated); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirect(w, r, CarPath(updated))
}

// DeleteCarForm asks for confirmation before deleting a car.
func (h *Handlers) DeleteCarForm(w http.ResponseWriter, r *http.Request) {
	car, err := h.ownedCar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "confirm_delete.html", ConfirmDeleteViewModel{
		Title:  fmt.Sprintf("Delete %s?", car),
		Action: "/car/" + car.ID.String() + "/delete",
		Cancel: CarPath(*car),
	})
}

// DeleteCar removes a car. Its entries are kept without a car.
func (h *Handlers) DeleteCar(w http.ResponseWriter, r *http.Request) {
	car, err := h.ownedCar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.db.DeleteCar(r.Context(), car.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.WithField("car_id", car.ID).Info("car deleted")
	h.redirect(w, r, "/cars")
}

// ownedCar loads the car named by the route and checks the actor owns it.
func (h *Handlers) ownedCar(r *http.Request) (*models.Car, error) {
	user := GetUserFromContext(r)
	if user == nil {
		return nil, access.ErrUnauthenticated
	}
	id, err := uuid.Parse(r.PathValue("car_id"))
	if err != nil {
		return nil, access.ErrNotFound
	}
	car, err := h.db.GetCar(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := access.Car(user, car); err != nil {
		return nil, err
	}
	return car, nil
}

func (h *Handlers) loadRecords(ctx context.Context, car *models.Car) (metrics.Records, error) {
	rec := metrics.Records{Car: *car}
	var err error
	if rec.Gas, err = h.db.ListGasPurchases(ctx, car.ID); err != nil {
		return rec, err
	}
	if rec.Maintenance, err = h.db.ListMaintenances(ctx, car.ID); err != nil {
		return rec, err
	}
	if rec.Tolls, err = h.db.ListTolls(ctx, car.ID); err != nil {
		return rec, err
	}
	return rec, nil
}
