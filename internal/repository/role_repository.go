package repository

import (
	"context"
	"database/sql"

	"github.com/dkarlovs/shopcore/internal/model"
)

// RoleRepo reads and mutates the roles/permissions tables and their join
// tables. Permissions are loaded eagerly wherever roles are returned, since
// every caller (token claims, access checks) needs the nested pairs.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// GetByName fetches a role by its unique name, without permissions. Returns
// sql.ErrNoRows when absent.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (model.Role, error) {
	var (
		role model.Role
		desc sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,description FROM roles WHERE name=? LIMIT 1", name).
		Scan(&role.ID, &role.Name, &desc)
	if err != nil {
		return model.Role{}, err
	}
	role.Description = desc.String
	return role, nil
}

// ListForUser returns the user's roles with nested permissions in one joined
// query.
func (r *RoleRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.id, r.name, r.description, p.id, p.resource, p.action, p.description
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = ?
		ORDER BY r.id, p.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoles(rows)
}

// ListAll returns every role with nested permissions, for administration.
func (r *RoleRepo) ListAll(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.id, r.name, r.description, p.id, p.resource, p.action, p.description
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		ORDER BY r.id, p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoles(rows)
}

// AssignToUser links a role to a user. Repeated assignment is a no-op; a
// missing user or role surfaces as ErrNotFound via the foreign keys.
func (r *RoleRepo) AssignToUser(ctx context.Context, userID, roleID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", userID, roleID)
	if err != nil {
		if isDupKey(err) {
			return nil
		}
		if isFKViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// RemoveFromUser unlinks a role from a user; removing an absent link is a
// no-op.
func (r *RoleRepo) RemoveFromUser(ctx context.Context, userID, roleID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_roles WHERE user_id=? AND role_id=?", userID, roleID)
	return err
}

// collectRoles folds joined role/permission rows into roles with nested
// permission slices. Rows arrive ordered by role id.
func collectRoles(rows *sql.Rows) ([]model.Role, error) {
	var out []model.Role
	for rows.Next() {
		var (
			role     model.Role
			roleDesc sql.NullString
			permID   sql.NullInt64
			permRes  sql.NullString
			permAct  sql.NullString
			permDesc sql.NullString
		)
		if err := rows.Scan(&role.ID, &role.Name, &roleDesc,
			&permID, &permRes, &permAct, &permDesc); err != nil {
			return nil, err
		}
		role.Description = roleDesc.String
		if len(out) == 0 || out[len(out)-1].ID != role.ID {
			out = append(out, role)
		}
		if permID.Valid {
			cur := &out[len(out)-1]
			cur.Permissions = append(cur.Permissions, model.Permission{
				ID:          uint64(permID.Int64),
				Resource:    permRes.String,
				Action:      permAct.String,
				Description: permDesc.String,
			})
		}
	}
	return out, rows.Err()
}
