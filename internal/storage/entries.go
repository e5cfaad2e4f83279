package storage

import (
	"context"
	"fmt"
	"strings"

	"gas-tracker/internal/dbx"
	"gas-tracker/internal/models"

	"github.com/google/uuid"
)

const entryBaseColumns = "id, occurred_at, car_id, owner_id"

// entryTable maps one entry kind onto its table.
type entryTable struct {
	name    string
	columns []string
	orderBy string
	// dest returns scan targets for the kind-specific columns of e.
	dest func(e models.Entry) []any
	// args returns the values written to the kind-specific columns of e.
	args func(e models.Entry) []any
}

var entryTables = map[models.EntryKind]entryTable{
	models.KindGasPurchase: {
		name:    "gas_purchases",
		columns: []string{"gallons", "cost_per_gallon", "odometer_reading"},
		orderBy: "odometer_reading DESC, occurred_at DESC",
		dest: func(e models.Entry) []any {
			p := e.(*models.GasPurchase)
			return []any{&p.Gallons, &p.CostPerGallon, &p.OdometerReading}
		},
		args: func(e models.Entry) []any {
			p := e.(*models.GasPurchase)
			return []any{p.Gallons, p.CostPerGallon, p.OdometerReading}
		},
	},
	models.KindMaintenance: {
		name:    "maintenances",
		columns: []string{"cost", "odometer_reading", "description"},
		orderBy: "odometer_reading DESC, occurred_at DESC",
		dest: func(e models.Entry) []any {
			m := e.(*models.Maintenance)
			return []any{&m.Amount, &m.OdometerReading, &m.Description}
		},
		args: func(e models.Entry) []any {
			m := e.(*models.Maintenance)
			return []any{m.Amount, m.OdometerReading, m.Description}
		},
	},
	models.KindToll: {
		name:    "tolls",
		columns: []string{"cost", "description"},
		orderBy: "occurred_at DESC",
		dest: func(e models.Entry) []any {
			t := e.(*models.Toll)
			return []any{&t.Amount, &t.Description}
		},
		args: func(e models.Entry) []any {
			t := e.(*models.Toll)
			return []any{t.Amount, t.Description}
		},
	},
}

func tableFor(kind models.EntryKind) entryTable {
	t, ok := entryTables[kind]
	if !ok {
		panic(fmt.Sprintf("storage: unknown entry kind %q", kind))
	}
	return t
}

func (t entryTable) selectColumns() string {
	return entryBaseColumns + ", " + strings.Join(t.columns, ", ")
}

func (t entryTable) scan(kind models.EntryKind, row scanner) (models.Entry, error) {
	e := models.NewEntry(kind)
	b := e.Base()
	dest := append([]any{&b.ID, &b.Datetime, &b.CarID, &b.OwnerID}, t.dest(e)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEntry inserts e, assigning a new id when it has none.
func (db *DB) CreateEntry(ctx context.Context, e models.Entry) error {
	t := tableFor(e.Kind())
	b := e.Base()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.Datetime = b.Datetime.UTC()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 4+len(t.columns)), ", ")
	args := append([]any{b.ID, b.Datetime, b.CarID, b.OwnerID}, t.args(e)...)
	query := "INSERT INTO " + t.name + " (" + t.selectColumns() + ") VALUES (" + placeholders + ")"
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %s: %w", e.Kind(), err)
	}
	return nil
}

// GetEntry retrieves an entry of the given kind by id.
func (db *DB) GetEntry(ctx context.Context, kind models.EntryKind, id uuid.UUID) (models.Entry, error) {
	t := tableFor(kind)
	row := db.conn.QueryRowContext(ctx, "SELECT "+t.selectColumns()+" FROM "+t.name+" WHERE id = ?", id)
	e, err := t.scan(kind, row)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// UpdateEntry saves the datetime, car and kind-specific fields of e. The
// stored owner is left as it was at creation.
func (db *DB) UpdateEntry(ctx context.Context, e models.Entry) error {
	t := tableFor(e.Kind())
	b := e.Base()
	b.Datetime = b.Datetime.UTC()

	sets := []string{"occurred_at = ?", "car_id = ?"}
	for _, c := range t.columns {
		sets = append(sets, c+" = ?")
	}
	args := append([]any{b.Datetime, b.CarID}, t.args(e)...)
	args = append(args, b.ID)

	res, err := db.conn.ExecContext(ctx, "UPDATE "+t.name+" SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", e.Kind(), err)
	}
	return expectOneRow(res)
}

// DeleteEntry removes an entry of the given kind.
func (db *DB) DeleteEntry(ctx context.Context, kind models.EntryKind, id uuid.UUID) error {
	t := tableFor(kind)
	res, err := db.conn.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return expectOneRow(res)
}

// Page selects a window of a list. A zero Limit selects everything.
type Page struct {
	Limit  int
	Offset int
}

// ListEntries returns a car's entries of one kind in the kind's default
// order.
func (db *DB) ListEntries(ctx context.Context, kind models.EntryKind, carID uuid.UUID, page Page) ([]models.Entry, error) {
	t := tableFor(kind)
	query := "SELECT " + t.selectColumns() + " FROM " + t.name + " WHERE car_id = ? ORDER BY " + t.orderBy
	args := []any{carID}
	if page.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, page.Limit, page.Offset)
	}
	return queryEntries(ctx, db.conn, kind, query, args...)
}

// CountEntries returns how many entries of one kind a car has.
func (db *DB) CountEntries(ctx context.Context, kind models.EntryKind, carID uuid.UUID) (int, error) {
	t := tableFor(kind)
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.name+" WHERE car_id = ?", carID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.name, err)
	}
	return n, nil
}

// CountForeignOwnedEntries returns how many of a car's entries of one kind
// carry a stored owner other than ownerID.
func (db *DB) CountForeignOwnedEntries(ctx context.Context, kind models.EntryKind, carID uuid.UUID, ownerID int64) (int, error) {
	t := tableFor(kind)
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+t.name+" WHERE car_id = ? AND owner_id <> ?",
		carID, ownerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count foreign %s: %w", t.name, err)
	}
	return n, nil
}

// ListGasPurchases returns every gas purchase of a car, highest odometer first.
func (db *DB) ListGasPurchases(ctx context.Context, carID uuid.UUID) ([]models.GasPurchase, error) {
	entries, err := db.ListEntries(ctx, models.KindGasPurchase, carID, Page{})
	if err != nil {
		return nil, err
	}
	out := make([]models.GasPurchase, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e.(*models.GasPurchase))
	}
	return out, nil
}

// ListMaintenances returns every maintenance event of a car.
func (db *DB) ListMaintenances(ctx context.Context, carID uuid.UUID) ([]models.Maintenance, error) {
	entries, err := db.ListEntries(ctx, models.KindMaintenance, carID, Page{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Maintenance, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e.(*models.Maintenance))
	}
	return out, nil
}

// ListTolls returns every toll of a car, newest first.
func (db *DB) ListTolls(ctx context.Context, carID uuid.UUID) ([]models.Toll, error) {
	entries, err := db.ListEntries(ctx, models.KindToll, carID, Page{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Toll, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e.(*models.Toll))
	}
	return out, nil
}

// ListOrphanedEntries returns a user's entries of one kind whose car has
// been deleted, newest first.
func (db *DB) ListOrphanedEntries(ctx context.Context, kind models.EntryKind, ownerID int64) ([]models.Entry, error) {
	t := tableFor(kind)
	return queryEntries(ctx, db.conn, kind,
		"SELECT "+t.selectColumns()+" FROM "+t.name+" WHERE car_id IS NULL AND owner_id = ? ORDER BY occurred_at DESC",
		ownerID,
	)
}

func queryEntries(ctx context.Context, q dbx.DBTX, kind models.EntryKind, query string, args ...any) ([]models.Entry, error) {
	t := tableFor(kind)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", t.name, err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		e, err := t.scan(kind, rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
