package storage

import (
	"context"
	"database/sql"
	"fmt"

	"gas-tracker/internal/dbx"
	"gas-tracker/internal/models"

	"github.com/google/uuid"
)

const carColumns = "id, make, model, year, purchase_date, purchase_price, vin, nickname, owner_id"

type scanner interface {
	Scan(dest ...any) error
}

func scanCar(row scanner) (*models.Car, error) {
	var (
		c        models.Car
		nickname sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Make, &c.Model, &c.Year, &c.PurchaseDate, &c.PurchasePrice, &c.VIN, &nickname, &c.OwnerID); err != nil {
		return nil, err
	}
	if nickname.Valid {
		c.Nickname = &nickname.String
	}
	return &c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateCar inserts c, assigning a new id when it has none.
func (db *DB) CreateCar(ctx context.Context, c *models.Car) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO cars ("+carColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Make, c.Model, c.Year, c.PurchaseDate.UTC(), c.PurchasePrice, c.VIN, nullString(c.Nickname), c.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert car: %w", err)
	}
	return nil
}

// GetCar retrieves a car by id.
func (db *DB) GetCar(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+carColumns+" FROM cars WHERE id = ?", id)
	c, err := scanCar(row)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// ListCarsByOwner returns the user's cars ordered by year, make and model.
func (db *DB) ListCarsByOwner(ctx context.Context, ownerID int64) ([]models.Car, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+carColumns+" FROM cars WHERE owner_id = ? ORDER BY year DESC, make, model",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select cars: %w", err)
	}
	defer rows.Close()

	var cars []models.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, *c)
	}
	return cars, rows.Err()
}

// UpdateCar saves the editable fields of c. The owner is never changed.
func (db *DB) UpdateCar(ctx context.Context, c *models.Car) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE cars SET make = ?, model = ?, year = ?, purchase_date = ?, purchase_price = ?, vin = ?, nickname = ? WHERE id = ?",
		c.Make, c.Model, c.Year, c.PurchaseDate.UTC(), c.PurchasePrice, c.VIN, nullString(c.Nickname), c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update car: %w", err)
	}
	return expectOneRow(res)
}

// DeleteCar removes a car. Its entries are kept with their car reference
// cleared.
func (db *DB) DeleteCar(ctx context.Context, id uuid.UUID) error {
	return dbx.WithTx(ctx, db.conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, kind := range models.EntryKinds {
			t := tableFor(kind)
			if _, err := tx.ExecContext(ctx, "UPDATE "+t.name+" SET car_id = NULL WHERE car_id = ?", id); err != nil {
				return fmt.Errorf("failed to orphan %s: %w", t.name, err)
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM cars WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete car: %w", err)
		}
		return expectOneRow(res)
	})
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
