package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MissionTemplate is a saved mission request an operator can resubmit.
type MissionTemplate struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	MissionType int       `json:"mission_type"`
	FromNode    string    `json:"from_node"`
	ToNode      string    `json:"to_node"`
	Vehicle     string    `json:"vehicle"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

func (db *DB) CreateMissionTemplate(t *MissionTemplate) error {
	id, err := db.insertID(`INSERT INTO mission_templates (name, mission_type, from_node, to_node, vehicle, priority) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Name, t.MissionType, t.FromNode, t.ToNode, t.Vehicle, t.Priority)
	if err != nil {
		return fmt.Errorf("create mission template: %w", err)
	}
	t.ID = id
	return nil
}

func (db *DB) GetMissionTemplate(name string) (*MissionTemplate, error) {
	var t MissionTemplate
	var createdAt any
	err := db.QueryRow(db.Q(`SELECT id, name, mission_type, from_node, to_node, vehicle, priority, created_at FROM mission_templates WHERE name=?`), name).
		Scan(&t.ID, &t.Name, &t.MissionType, &t.FromNode, &t.ToNode, &t.Vehicle, &t.Priority, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mission template %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

func (db *DB) ListMissionTemplates() ([]*MissionTemplate, error) {
	rows, err := db.Query(`SELECT id, name, mission_type, from_node, to_node, vehicle, priority, created_at FROM mission_templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*MissionTemplate
	for rows.Next() {
		var t MissionTemplate
		var createdAt any
		if err := rows.Scan(&t.ID, &t.Name, &t.MissionType, &t.FromNode, &t.ToNode, &t.Vehicle, &t.Priority, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (db *DB) DeleteMissionTemplate(name string) error {
	_, err := db.Exec(db.Q(`DELETE FROM mission_templates WHERE name=?`), name)
	return err
}

// insertID runs an INSERT and returns the new row ID. PostgreSQL has no
// LastInsertId, so the query gets a RETURNING clause there.
func (db *DB) insertID(query string, args ...any) (int64, error) {
	if db.driver == "postgres" {
		var id int64
		err := db.QueryRow(db.Q(query+` RETURNING id`), args...).Scan(&id)
		return id, err
	}
	res, err := db.Exec(db.Q(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
