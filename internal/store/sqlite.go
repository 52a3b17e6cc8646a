package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/menusync/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, persistenceError(fmt.Errorf("open sqlite database: %w", err), "open")
	}
	// A single connection keeps :memory: databases and the foreign_keys
	// pragma consistent across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, persistenceError(fmt.Errorf("initialize schema: %w", err), "open")
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	PRAGMA foreign_keys = ON;
	CREATE TABLE IF NOT EXISTS menus (
		blog_id INTEGER NOT NULL,
		id INTEGER NOT NULL,
		local_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		fingerprint TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL,
		synced_at INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (blog_id, id)
	);
	CREATE TABLE IF NOT EXISTS menu_items (
		blog_id INTEGER NOT NULL,
		menu_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		id INTEGER NOT NULL DEFAULT 0,
		local_id TEXT NOT NULL,
		parent_local_id TEXT NOT NULL DEFAULT '',
		content_id INTEGER NOT NULL DEFAULT 0,
		type TEXT NOT NULL DEFAULT '',
		type_family TEXT NOT NULL DEFAULT '',
		type_label TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		link_target TEXT NOT NULL DEFAULT '',
		link_title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		classes TEXT,
		PRIMARY KEY (blog_id, menu_id, position),
		FOREIGN KEY (blog_id, menu_id) REFERENCES menus(blog_id, id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS menu_locations (
		blog_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		default_state TEXT NOT NULL DEFAULT '',
		menu_id INTEGER,
		PRIMARY KEY (blog_id, name),
		FOREIGN KEY (blog_id, menu_id) REFERENCES menus(blog_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_menu_locations_menu ON menu_locations(blog_id, menu_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ListMenus returns the blog's menus ordered by id.
func (s *SQLiteStore) ListMenus(ctx context.Context, blogID int64) ([]*model.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	menus, err := loadMenus(ctx, s.db, blogID, 0)
	if err != nil {
		return nil, persistenceError(err, "list menus")
	}
	return menus, nil
}

// GetMenu returns a single menu or a not_found error.
func (s *SQLiteStore) GetMenu(ctx context.Context, blogID, menuID int64) (*model.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	menus, err := loadMenus(ctx, s.db, blogID, menuID)
	if err != nil {
		return nil, persistenceError(err, "get menu")
	}
	if len(menus) == 0 {
		return nil, menuNotFound(blogID, menuID)
	}
	return menus[0], nil
}

// ListLocations returns the blog's locations ordered by name.
func (s *SQLiteStore) ListLocations(ctx context.Context, blogID int64) ([]model.MenuLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT blog_id, name, description, default_state, menu_id FROM menu_locations WHERE blog_id = ? ORDER BY name",
		blogID,
	)
	if err != nil {
		return nil, persistenceError(fmt.Errorf("query locations: %w", err), "list locations")
	}
	defer rows.Close()

	var out []model.MenuLocation
	for rows.Next() {
		var loc model.MenuLocation
		var menuID sql.NullInt64
		if err := rows.Scan(&loc.BlogID, &loc.Name, &loc.Description, &loc.DefaultState, &menuID); err != nil {
			return nil, persistenceError(fmt.Errorf("scan location: %w", err), "list locations")
		}
		loc.MenuID = menuID.Int64
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError(fmt.Errorf("iterate rows: %w", err), "list locations")
	}
	return out, nil
}

// SaveMenu upserts a saved menu with its items and location assignments.
func (s *SQLiteStore) SaveMenu(ctx context.Context, menu *model.Menu) error {
	if err := validateSavable(menu); err != nil {
		return err
	}
	menu, err := scoped(menu, menu.BlogID)
	if err != nil {
		return persistenceError(err, "save menu")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := upsertMenu(ctx, tx, menu); err != nil {
			return err
		}
		return assignLocations(ctx, tx, menu)
	})
	if err != nil {
		return persistenceError(err, "save menu")
	}
	return nil
}

// DeleteMenu removes a menu, its items and its location assignments.
func (s *SQLiteStore) DeleteMenu(ctx context.Context, blogID, menuID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return deleteMenu(ctx, tx, blogID, menuID)
	})
	if err != nil {
		return persistenceError(err, "delete menu")
	}
	return nil
}

// ReplaceBlogMenus makes the blog's local state equal to menus and locations.
func (s *SQLiteStore) ReplaceBlogMenus(ctx context.Context, blogID int64, menus []*model.Menu, locations []model.MenuLocation) (ReplaceStats, error) {
	incoming := make([]*model.Menu, 0, len(menus))
	for _, m := range menus {
		if err := validateSavable(m); err != nil {
			return ReplaceStats{}, err
		}
		c, err := scoped(m, blogID)
		if err != nil {
			return ReplaceStats{}, persistenceError(err, "replace menus")
		}
		incoming = append(incoming, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stats ReplaceStats
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		previous, err := fingerprints(ctx, tx, blogID)
		if err != nil {
			return err
		}

		keep := make(map[int64]bool, len(incoming))
		for _, m := range incoming {
			if err := upsertMenu(ctx, tx, m); err != nil {
				return err
			}
			keep[m.ID] = true
			if fp, ok := previous[m.ID]; !ok || fp != m.Fingerprint {
				stats.Changed++
			}
		}
		stats.Menus = len(keep)

		for id := range previous {
			if keep[id] {
				continue
			}
			if err := deleteMenu(ctx, tx, blogID, id); err != nil {
				return err
			}
			stats.Removed++
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM menu_locations WHERE blog_id = ?", blogID); err != nil {
			return fmt.Errorf("clear locations: %w", err)
		}
		for _, loc := range locations {
			var menuID any
			if loc.MenuID != 0 && keep[loc.MenuID] {
				menuID = loc.MenuID
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO menu_locations (blog_id, name, description, default_state, menu_id) VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(blog_id, name) DO UPDATE SET description = excluded.description,
					default_state = excluded.default_state, menu_id = excluded.menu_id`,
				blogID, loc.Name, loc.Description, loc.DefaultState, menuID,
			)
			if err != nil {
				return fmt.Errorf("insert location %q: %w", loc.Name, err)
			}
		}
		stats.Locations, err = countLocations(ctx, tx, blogID)
		return err
	})
	if err != nil {
		return ReplaceStats{}, persistenceError(err, "replace menus")
	}
	return stats, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func upsertMenu(ctx context.Context, tx *sql.Tx, m *model.Menu) error {
	localID := m.LocalID
	if localID == "" {
		localID = model.MenuLocalID(m.BlogID, m.ID)
	}
	var syncedAt int64
	if !m.SyncedAt.IsZero() {
		syncedAt = m.SyncedAt.UnixNano()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO menus (blog_id, id, local_id, name, description, fingerprint, state, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(blog_id, id) DO UPDATE SET local_id = excluded.local_id, name = excluded.name,
			description = excluded.description, fingerprint = excluded.fingerprint,
			state = excluded.state, synced_at = excluded.synced_at`,
		m.BlogID, m.ID, localID, m.Name, m.Description, m.Fingerprint, string(m.State), syncedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert menu %d: %w", m.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM menu_items WHERE blog_id = ? AND menu_id = ?", m.BlogID, m.ID); err != nil {
		return fmt.Errorf("clear items of menu %d: %w", m.ID, err)
	}
	for i, it := range m.Items {
		var classes []byte
		if len(it.Classes) > 0 {
			if classes, err = json.Marshal(it.Classes); err != nil {
				return fmt.Errorf("marshal classes: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO menu_items (blog_id, menu_id, position, id, local_id, parent_local_id, content_id,
				type, type_family, type_label, url, name, link_target, link_title, description, classes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.BlogID, m.ID, i, it.ID, it.LocalID, it.ParentLocalID, it.ContentID,
			it.Type, it.TypeFamily, it.TypeLabel, it.URL, it.Name, it.LinkTarget, it.LinkTitle, it.Description, classes,
		)
		if err != nil {
			return fmt.Errorf("insert item %d of menu %d: %w", i, m.ID, err)
		}
	}
	return nil
}

func assignLocations(ctx context.Context, tx *sql.Tx, m *model.Menu) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE menu_locations SET menu_id = NULL WHERE blog_id = ? AND menu_id = ?", m.BlogID, m.ID,
	); err != nil {
		return fmt.Errorf("clear location assignments: %w", err)
	}
	for _, name := range m.Locations {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO menu_locations (blog_id, name, menu_id) VALUES (?, ?, ?)
			ON CONFLICT(blog_id, name) DO UPDATE SET menu_id = excluded.menu_id`,
			m.BlogID, name, m.ID,
		)
		if err != nil {
			return fmt.Errorf("assign location %q: %w", name, err)
		}
	}
	return nil
}

func deleteMenu(ctx context.Context, tx *sql.Tx, blogID, menuID int64) error {
	stmts := []string{
		"UPDATE menu_locations SET menu_id = NULL WHERE blog_id = ? AND menu_id = ?",
		"DELETE FROM menu_items WHERE blog_id = ? AND menu_id = ?",
		"DELETE FROM menus WHERE blog_id = ? AND id = ?",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, blogID, menuID); err != nil {
			return fmt.Errorf("delete menu %d: %w", menuID, err)
		}
	}
	return nil
}

func fingerprints(ctx context.Context, q querier, blogID int64) (map[int64]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, fingerprint FROM menus WHERE blog_id = ?", blogID)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var id int64
		var fp string
		if err := rows.Scan(&id, &fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		out[id] = fp
	}
	return out, rows.Err()
}

func countLocations(ctx context.Context, q querier, blogID int64) (int, error) {
	rows, err := q.QueryContext(ctx, "SELECT COUNT(*) FROM menu_locations WHERE blog_id = ?", blogID)
	if err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("scan count: %w", err)
		}
	}
	return n, rows.Err()
}

// loadMenus reads menus of a blog with their items and locations. A
// non-zero menuID restricts the result to that menu.
func loadMenus(ctx context.Context, q querier, blogID, menuID int64) ([]*model.Menu, error) {
	query := "SELECT id, local_id, name, description, fingerprint, state, synced_at FROM menus WHERE blog_id = ?"
	args := []any{blogID}
	if menuID != 0 {
		query += " AND id = ?"
		args = append(args, menuID)
	}
	query += " ORDER BY id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query menus: %w", err)
	}
	var menus []*model.Menu
	byID := make(map[int64]*model.Menu)
	for rows.Next() {
		m := &model.Menu{BlogID: blogID}
		var state string
		var syncedAt int64
		if err := rows.Scan(&m.ID, &m.LocalID, &m.Name, &m.Description, &m.Fingerprint, &state, &syncedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		m.State = model.MenuState(state)
		if syncedAt != 0 {
			m.SyncedAt = time.Unix(0, syncedAt).UTC()
		}
		menus = append(menus, m)
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate menus: %w", err)
	}
	rows.Close()

	if len(menus) == 0 {
		return nil, nil
	}
	if err := loadItems(ctx, q, blogID, byID); err != nil {
		return nil, err
	}
	if err := loadAssignments(ctx, q, blogID, byID); err != nil {
		return nil, err
	}
	return menus, nil
}

func loadItems(ctx context.Context, q querier, blogID int64, byID map[int64]*model.Menu) error {
	rows, err := q.QueryContext(ctx,
		`SELECT menu_id, position, id, local_id, parent_local_id, content_id, type, type_family, type_label,
			url, name, link_target, link_title, description, classes
		FROM menu_items WHERE blog_id = ? ORDER BY menu_id, position`,
		blogID,
	)
	if err != nil {
		return fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var menuID int64
		var it model.MenuItem
		var classes sql.NullString
		if err := rows.Scan(&menuID, &it.Position, &it.ID, &it.LocalID, &it.ParentLocalID, &it.ContentID,
			&it.Type, &it.TypeFamily, &it.TypeLabel, &it.URL, &it.Name, &it.LinkTarget, &it.LinkTitle,
			&it.Description, &classes); err != nil {
			return fmt.Errorf("scan item: %w", err)
		}
		if classes.Valid && classes.String != "" {
			if err := json.Unmarshal([]byte(classes.String), &it.Classes); err != nil {
				return fmt.Errorf("unmarshal classes: %w", err)
			}
		}
		if m, ok := byID[menuID]; ok {
			m.Items = append(m.Items, it)
		}
	}
	return rows.Err()
}

func loadAssignments(ctx context.Context, q querier, blogID int64, byID map[int64]*model.Menu) error {
	rows, err := q.QueryContext(ctx,
		"SELECT name, menu_id FROM menu_locations WHERE blog_id = ? AND menu_id IS NOT NULL ORDER BY name",
		blogID,
	)
	if err != nil {
		return fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var menuID int64
		if err := rows.Scan(&name, &menuID); err != nil {
			return fmt.Errorf("scan assignment: %w", err)
		}
		if m, ok := byID[menuID]; ok {
			m.Locations = append(m.Locations, name)
		}
	}
	return rows.Err()
}
