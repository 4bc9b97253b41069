package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/user"
)

const userColumns = "id, name, email, role, is_active, password_hash, firebase_uid, created_at, updated_at, last_login"

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error {
	w := where{}
	w.add("email = ?", email)
	if len(excludedIDs) > 0 {
		w.add("id NOT IN (?)", excludedIDs)
	}

	var cnt int
	if err := repo.get(ctx, repo.getExec(exec), &cnt, "SELECT COUNT(*) FROM users"+w.String(), w.args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if cnt > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = newID()
	q := "INSERT INTO users (" + userColumns + ") VALUES " +
		"(:id, :name, :email, :role, :is_active, :password_hash, :firebase_uid, :created_at, :updated_at, :last_login)"
	if _, err := repo.executeNamed(ctx, repo.getExec(exec), q, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	w := where{}
	switch {
	case filter.ID != "":
		if !isUUID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	case filter.FirebaseUID != "":
		w.add("firebase_uid = ?", filter.FirebaseUID)
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.get(ctx, repo.getExec(exec), &usr, "SELECT "+userColumns+" FROM users"+w.String(), w.args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `UPDATE users SET name = :name, email = :email, role = :role, is_active = :is_active,
		password_hash = :password_hash, firebase_uid = :firebase_uid, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	cnt, err := repo.executeNamed(ctx, repo.getExec(exec), q, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	cnt, err := repo.execute(ctx, repo.getExec(exec), "DELETE FROM users WHERE id IN (?)", valid)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}
