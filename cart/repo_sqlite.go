package cart

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	errs "github.com/acheron-labs/voidmarket/internal/errors"
)

// SQLiteRepo persists carts in SQLite. A cart survives browser restarts and
// logins; it is written on every mutation and deleted only after a confirmed
// order.
type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(dbPath string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errs.Wrapf(err, "failed to open cart database")
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cart_items (
			cart_id     TEXT NOT NULL,
			position    INTEGER NOT NULL,
			product_id  TEXT NOT NULL,
			quantity    INTEGER NOT NULL CHECK (quantity > 0),
			PRIMARY KEY (cart_id, position)
		);`,
	); err != nil {
		db.Close()
		return nil, errs.Wrapf(err, "failed to init cart_items schema")
	}

	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) Get(cartID string) (Items, error) {
	if cartID == "" {
		return nil, errors.New("cartID cannot be empty")
	}

	rows, err := r.db.Query(
		`SELECT product_id, quantity FROM cart_items WHERE cart_id = ? ORDER BY position`,
		cartID,
	)
	if err != nil {
		return nil, errs.Wrapf(err, "failed to load cart %q", cartID)
	}
	defer rows.Close()

	var items Items
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, errs.Wrapf(err, "failed to scan cart line")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrapf(err, "failed to read cart %q", cartID)
	}

	return items.Normalize(), nil
}

func (r *SQLiteRepo) Put(cartID string, items Items) error {
	if cartID == "" {
		return errors.New("cartID cannot be empty")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return errs.Wrapf(err, "failed to begin cart write")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return errs.Wrapf(err, "failed to clear cart %q", cartID)
	}

	for position, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("cart line %d has quantity %d", position, item.Quantity)
		}
		if _, err := tx.Exec(
			`INSERT INTO cart_items (cart_id, position, product_id, quantity) VALUES (?, ?, ?, ?)`,
			cartID, position, item.ProductID, item.Quantity,
		); err != nil {
			return errs.Wrapf(err, "failed to write cart line %d", position)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrapf(err, "failed to commit cart %q", cartID)
	}
	return nil
}

func (r *SQLiteRepo) Delete(cartID string) error {
	if cartID == "" {
		return errors.New("cartID cannot be empty")
	}

	if _, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return errs.Wrapf(err, "failed to delete cart %q", cartID)
	}
	return nil
}
