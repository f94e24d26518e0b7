package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sipeed/taskclaw/pkg/access"
)

var ErrDuplicateLogin = errors.New("login already exists")

// CreateUser inserts u and sets u.UserID.
func (s *Store) CreateUser(ctx context.Context, u *access.User) error {
	login := strings.TrimSpace(u.Login)
	if login == "" {
		return fmt.Errorf("login is required")
	}
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = login
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE login = ?`, login).Scan(&n); err != nil {
		return fmt.Errorf("check login %q: %w", login, err)
	}
	if n > 0 {
		return fmt.Errorf("create user %q: %w", login, ErrDuplicateLogin)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (login, name, roles, superuser) VALUES (?, ?, ?, ?)`,
		login, name, access.JoinRoles(u.Roles), u.Superuser)
	if err != nil {
		return fmt.Errorf("create user %q: %w", login, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user %q: %w", login, err)
	}
	u.UserID, u.Login, u.Name = id, login, name
	return nil
}

// FindByLogin returns (nil, nil) for unknown logins.
func (s *Store) FindByLogin(ctx context.Context, login string) (*access.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, login, name, roles, superuser FROM users WHERE login = ?`, login))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %q: %w", login, err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]access.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, login, name, roles, superuser FROM users ORDER BY login`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []access.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func scanUser(row rowScanner) (*access.User, error) {
	var (
		u     access.User
		roles string
	)
	if err := row.Scan(&u.UserID, &u.Login, &u.Name, &roles, &u.Superuser); err != nil {
		return nil, err
	}
	u.Roles = access.SplitRoles(roles)
	return &u, nil
}

type Project struct {
	ID   int64
	Name string
}

func (s *Store) CreateProject(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("project name is required")
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO projects (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create project %q: %w", name, err)
	}
	return res.LastInsertId()
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
