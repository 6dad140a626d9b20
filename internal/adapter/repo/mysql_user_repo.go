package repo

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

type MySQLUserRepo struct{ db *sql.DB }

func NewMySQLUserRepo(db *sql.DB) *MySQLUserRepo { return &MySQLUserRepo{db: db} }

func (r *MySQLUserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO users (id,email,password,full_name,avatar_url,role,is_blocked,created_at)
VALUES (?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, u.PasswordHash, nullString(u.FullName), nullString(u.AvatarURL), string(u.Role), u.IsBlocked, u.CreatedAt)
	if isDuplicateKey(err) {
		return usecase.ErrRecordExists
	}
	return err
}

func (r *MySQLUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

func (r *MySQLUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `WHERE email = ?`, email)
}

func (r *MySQLUserRepo) get(ctx context.Context, where string, arg any) (*domain.User, error) {
	var (
		u                domain.User
		role             string
		fullName, avatar sql.NullString
	)
	err := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT id, email, password, full_name, avatar_url, role, is_blocked, created_at
FROM users `+where, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &fullName, &avatar, &role, &u.IsBlocked, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	u.Role = domain.Role(role)
	u.FullName, u.AvatarURL = fullName.String, avatar.String
	return &u, nil
}

var _ usecase.UserRepo = (*MySQLUserRepo)(nil)
