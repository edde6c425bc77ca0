package store

import (
	"database/sql"
	"errors"
)

// GetSetting returns the stored value for key and whether it was set.
func (db *DB) GetSetting(key string) (string, bool, error) {
	var v string
	err := db.QueryRow(db.Q(`SELECT value FROM settings WHERE key=?`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (db *DB) SetSetting(key, value string) error {
	q := `INSERT INTO settings (key, value) VALUES (?, ?) ` +
		db.dialect.Upsert("key", "value") + `, updated_at=` + db.dialect.Now()
	_, err := db.Exec(db.Q(q), key, value)
	return err
}

func (db *DB) ListSettings() (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
