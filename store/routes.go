package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Route is a saved sequence of map nodes. Dispatching a route creates one
// mission per consecutive pair of nodes.
type Route struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Nodes       []string  `json:"nodes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

const routeColumns = `id, name, description, nodes, created_at, updated_at`

func scanRoute(row interface{ Scan(...any) error }) (*Route, error) {
	var r Route
	var nodes string
	var createdAt, updatedAt any
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &nodes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(nodes), &r.Nodes); err != nil {
		return nil, fmt.Errorf("route %s nodes: %w", r.Name, err)
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// SaveRoute inserts or replaces the route with r.Name.
func (db *DB) SaveRoute(r *Route) error {
	if r.Name == "" {
		return fmt.Errorf("route name is required")
	}
	nodes := r.Nodes
	if nodes == nil {
		nodes = []string{}
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return err
	}
	q := `INSERT INTO routes (name, description, nodes) VALUES (?, ?, ?) ` +
		db.dialect.Upsert("name", "description", "nodes") + `, updated_at=` + db.dialect.Now()
	if _, err := db.Exec(db.Q(q), r.Name, r.Description, string(data)); err != nil {
		return err
	}
	saved, err := db.GetRoute(r.Name)
	if err != nil {
		return err
	}
	*r = *saved
	return nil
}

func (db *DB) GetRoute(name string) (*Route, error) {
	r, err := scanRoute(db.QueryRow(db.Q(`SELECT `+routeColumns+` FROM routes WHERE name=?`), name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("route %q: %w", name, ErrNotFound)
	}
	return r, err
}

func (db *DB) ListRoutes() ([]*Route, error) {
	rows, err := db.Query(`SELECT ` + routeColumns + ` FROM routes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var routes []*Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func (db *DB) DeleteRoute(name string) error {
	res, err := db.Exec(db.Q(`DELETE FROM routes WHERE name=?`), name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("route %q: %w", name, ErrNotFound)
	}
	return nil
}
