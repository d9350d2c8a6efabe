package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"plotterctl/model"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// ErrKeyInUse is returned when deleting a key that commands still refer to.
var ErrKeyInUse = errors.New("key has commands")

// ErrNotPending is returned when a cancel targets a command that already left
// the pending state.
var ErrNotPending = errors.New("command is not pending")

type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// DefaultPath returns ~/.plotterctl/control.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".plotterctl", "control.db"), nil
}

func New(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS keys (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			api_token TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			target INTEGER NOT NULL,
			position INTEGER NOT NULL,
			associated_key INTEGER NOT NULL REFERENCES keys(id),
			status INTEGER NOT NULL DEFAULT 0,
			time INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_commands_status ON commands(status);
	`)
	return err
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// Add queues a pending command.
func (d *DB) Add(target, position, keyID int64) (int64, error) {
	result, err := d.conn.Exec(
		`INSERT INTO commands (target, position, associated_key, status, time) VALUES (?, ?, ?, ?, ?)`,
		target, position, keyID, model.StatusPending, d.now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Count returns how many commands match the given statuses. An empty slice
// matches every command.
func (d *DB) Count(statuses []model.Status) (int, error) {
	where, args := statusClause(statuses)
	var count int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM commands`+where, args...).Scan(&count)
	return count, err
}

// List returns one page of commands, newest first.
func (d *DB) List(statuses []model.Status, limit, offset int) ([]model.Command, error) {
	where, args := statusClause(statuses)
	args = append(args, limit, offset)
	rows, err := d.conn.Query(`
		SELECT commands.id, commands.target, commands.position, keys.name,
			commands.associated_key, commands.status,
			datetime(commands.time, 'unixepoch')
		FROM commands
		JOIN keys ON commands.associated_key = keys.id`+where+`
		ORDER BY commands.id DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	commands := []model.Command{}
	for rows.Next() {
		var c model.Command
		if err := rows.Scan(&c.ID, &c.Target, &c.Position, &c.KeyName, &c.KeyID, &c.Status, &c.Datetime); err != nil {
			return nil, err
		}
		commands = append(commands, c)
	}
	return commands, rows.Err()
}

// Get loads a single command by id.
func (d *DB) Get(id int64) (model.Command, error) {
	var c model.Command
	err := d.conn.QueryRow(`
		SELECT commands.id, commands.target, commands.position, keys.name,
			commands.associated_key, commands.status,
			datetime(commands.time, 'unixepoch')
		FROM commands
		JOIN keys ON commands.associated_key = keys.id
		WHERE commands.id = ?
	`, id).Scan(&c.ID, &c.Target, &c.Position, &c.KeyName, &c.KeyID, &c.Status, &c.Datetime)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// UpdateStatus sets the status of a command unconditionally.
func (d *DB) UpdateStatus(id int64, status model.Status) error {
	result, err := d.conn.Exec(`UPDATE commands SET status = ? WHERE id = ?`, status, id)
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

// Cancel marks a pending command as cancelled.
func (d *DB) Cancel(id int64) error {
	result, err := d.conn.Exec(
		`UPDATE commands SET status = ? WHERE id = ? AND status = ?`,
		model.StatusCancelled, id, model.StatusPending,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := d.Get(id); err != nil {
		return err
	}
	return ErrNotPending
}

// NextPending returns the oldest pending command queued for the key holding
// token. ErrNotFound means the queue is empty or the token is unknown.
func (d *DB) NextPending(token string) (model.Command, error) {
	var c model.Command
	err := d.conn.QueryRow(`
		SELECT commands.id, commands.target, commands.position, keys.name,
			commands.associated_key, commands.status,
			datetime(commands.time, 'unixepoch')
		FROM commands
		JOIN keys ON commands.associated_key = keys.id
		WHERE keys.api_token = ? AND commands.status = ?
		ORDER BY commands.id
		LIMIT 1
	`, token, model.StatusPending).Scan(&c.ID, &c.Target, &c.Position, &c.KeyName, &c.KeyID, &c.Status, &c.Datetime)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// StatusForToken returns the status of a command, provided it belongs to the
// key holding token.
func (d *DB) StatusForToken(token string, id int64) (model.Status, error) {
	var status model.Status
	err := d.conn.QueryRow(`
		SELECT commands.status
		FROM commands
		JOIN keys ON commands.associated_key = keys.id
		WHERE keys.api_token = ? AND commands.id = ?
	`, token, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return status, ErrNotFound
	}
	return status, err
}

func statusClause(statuses []model.Status) (string, []any) {
	if len(statuses) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = s
	}
	return " WHERE commands.status IN (" + strings.Join(placeholders, ", ") + ")", args
}
