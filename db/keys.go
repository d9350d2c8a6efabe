package db

import (
	"database/sql"
	"errors"

	"plotterctl/model"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// CreateKey adds a key with a freshly generated api token.
func (d *DB) CreateKey(name string) (model.Key, error) {
	k := model.Key{Name: name, APIToken: uuid.NewString()}
	result, err := d.conn.Exec(`INSERT INTO keys (name, api_token) VALUES (?, ?)`, k.Name, k.APIToken)
	if err != nil {
		return model.Key{}, err
	}
	k.ID, err = result.LastInsertId()
	return k, err
}

// EnsureKey returns the key with the given name, creating it first if needed.
func (d *DB) EnsureKey(name string) (model.Key, error) {
	var k model.Key
	err := d.conn.QueryRow(`SELECT id, name, api_token FROM keys WHERE name = ?`, name).
		Scan(&k.ID, &k.Name, &k.APIToken)
	if errors.Is(err, sql.ErrNoRows) {
		return d.CreateKey(name)
	}
	return k, err
}

func (d *DB) ListKeys() ([]model.Key, error) {
	rows, err := d.conn.Query(`SELECT id, name, api_token FROM keys ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []model.Key{}
	for rows.Next() {
		var k model.Key
		if err := rows.Scan(&k.ID, &k.Name, &k.APIToken); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (d *DB) KeyExists(id int64) (bool, error) {
	var count int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM keys WHERE id = ?`, id).Scan(&count)
	return count > 0, err
}

// DeleteKey removes a key. Keys that still have commands are kept.
func (d *DB) DeleteKey(id int64) error {
	result, err := d.conn.Exec(`DELETE FROM keys WHERE id = ?`, id)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return ErrKeyInUse
	}
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
