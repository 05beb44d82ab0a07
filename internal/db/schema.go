package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS elements (
    id                 TEXT PRIMARY KEY,
    name               TEXT NOT NULL,
    category           TEXT NOT NULL,
    element_type       TEXT NOT NULL,
    unit               TEXT NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    location           TEXT NOT NULL DEFAULT '',
    expiration_date    DATETIME,
    notes              TEXT NOT NULL DEFAULT '',
    initial_quantity   INTEGER NOT NULL CHECK (initial_quantity > 0),
    supplied_quantity  INTEGER NOT NULL DEFAULT 0 CHECK (supplied_quantity >= 0),
    available_quantity INTEGER NOT NULL CHECK (available_quantity >= 0),
    image              BLOB,
    image_mime         TEXT,
    thumbnail          BLOB,
    created_at         DATETIME NOT NULL,
    updated_at         DATETIME NOT NULL,
    CHECK (supplied_quantity <= initial_quantity),
    CHECK (available_quantity = initial_quantity - supplied_quantity)
);

CREATE INDEX IF NOT EXISTS idx_elements_category ON elements(category);

CREATE TABLE IF NOT EXISTS requests (
    id           TEXT PRIMARY KEY,
    element_id   TEXT NOT NULL REFERENCES elements(id),
    element_name TEXT NOT NULL,
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    sector       TEXT NOT NULL,
    request_date DATETIME NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'delivered', 'rejected')),
    notes        TEXT NOT NULL DEFAULT '',
    created_at   DATETIME NOT NULL,
    updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_requests_element ON requests(element_id);

CREATE TABLE IF NOT EXISTS orders (
    id         TEXT PRIMARY KEY,
    client     TEXT NOT NULL,
    order_date DATETIME NOT NULL,
    status     TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'delivered', 'rejected')),
    notes      TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS order_lines (
    order_id     TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    position     INTEGER NOT NULL,
    element_id   TEXT NOT NULL REFERENCES elements(id),
    element_name TEXT NOT NULL,
    unit         TEXT NOT NULL,
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    PRIMARY KEY (order_id, position)
);

CREATE INDEX IF NOT EXISTS idx_order_lines_element ON order_lines(element_id);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
