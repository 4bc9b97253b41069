package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/tenant"
)

const (
	administratorColumns = "id, user_id, name, email, created_at, updated_at"
	mentorColumns        = "id, user_id, administrator_id, name, email, platform_name, logo_url, accent_color, active, created_at, updated_at"
	studentColumns       = "id, user_id, mentor_id, name, email, phone, plan, active, created_at, updated_at"
)

type tenantRepository struct {
	repository
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(exec core.DBExecutor) *tenantRepository {
	return &tenantRepository{repository{exec: exec}}
}

// Administrators

func (repo tenantRepository) CreateAdministrator(ctx context.Context, adm tenant.Administrator, exec ...core.DBExecutor) (tenant.Administrator, error) {
	adm.ID = newID()
	q := "INSERT INTO administrators (" + administratorColumns + ") VALUES (:id, :user_id, :name, :email, :created_at, :updated_at)"
	if _, err := repo.executeNamed(ctx, repo.getExec(exec), q, adm); err != nil {
		return tenant.Administrator{}, errors.Wrap(err, "inserting administrator")
	}
	return adm, nil
}

func (repo tenantRepository) GetAdministrator(ctx context.Context, filter tenant.AdministratorFilter, exec ...core.DBExecutor) (tenant.Administrator, error) {
	w := where{}
	if filter.ID != "" {
		w.add("id = ?", filter.ID)
	}
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if len(w.conds) == 0 || !validIDs(filter.ID, filter.UserID) {
		return tenant.Administrator{}, tenant.ErrNotFound
	}

	var adm tenant.Administrator
	if err := repo.get(ctx, repo.getExec(exec), &adm, "SELECT "+administratorColumns+" FROM administrators"+w.String(), w.args...); err != nil {
		return tenant.Administrator{}, trapNoRowsErr(err, tenant.ErrNotFound, "finding administrator")
	}
	return adm, nil
}

// Mentors

func mentorWhere(filter tenant.MentorFilter) where {
	w := where{}
	if filter.ID != "" {
		w.add("id = ?", filter.ID)
	}
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.AdministratorID != "" {
		w.add("administrator_id = ?", filter.AdministratorID)
	}
	return w
}

func (repo tenantRepository) CreateMentor(ctx context.Context, mtr tenant.Mentor, exec ...core.DBExecutor) (tenant.Mentor, error) {
	mtr.ID = newID()
	q := "INSERT INTO mentors (" + mentorColumns + ") VALUES " +
		"(:id, :user_id, :administrator_id, :name, :email, :platform_name, :logo_url, :accent_color, :active, :created_at, :updated_at)"
	if _, err := repo.executeNamed(ctx, repo.getExec(exec), q, mtr); err != nil {
		return tenant.Mentor{}, errors.Wrap(err, "inserting mentor")
	}
	return mtr, nil
}

func (repo tenantRepository) GetMentor(ctx context.Context, filter tenant.MentorFilter, exec ...core.DBExecutor) (tenant.Mentor, error) {
	w := mentorWhere(filter)
	if len(w.conds) == 0 || !validIDs(filter.ID, filter.UserID, filter.AdministratorID) {
		return tenant.Mentor{}, tenant.ErrNotFound
	}

	var mtr tenant.Mentor
	if err := repo.get(ctx, repo.getExec(exec), &mtr, "SELECT "+mentorColumns+" FROM mentors"+w.String(), w.args...); err != nil {
		return tenant.Mentor{}, trapNoRowsErr(err, tenant.ErrNotFound, "finding mentor")
	}
	return mtr, nil
}

func (repo tenantRepository) QueryMentors(ctx context.Context, filter tenant.MentorFilter, exec ...core.DBExecutor) ([]tenant.Mentor, error) {
	if !validIDs(filter.ID, filter.UserID, filter.AdministratorID) {
		return []tenant.Mentor{}, nil
	}
	w := mentorWhere(filter)

	mentors := make([]tenant.Mentor, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &mentors, "SELECT "+mentorColumns+" FROM mentors"+w.String()+" ORDER BY name, created_at", w.args...); err != nil {
		return nil, errors.Wrap(err, "querying mentors")
	}
	return mentors, nil
}

func (repo tenantRepository) UpdateMentor(ctx context.Context, mtr tenant.Mentor, exec ...core.DBExecutor) (tenant.Mentor, error) {
	q := `UPDATE mentors SET name = :name, email = :email, platform_name = :platform_name, logo_url = :logo_url,
		accent_color = :accent_color, active = :active, updated_at = :updated_at
		WHERE id = :id`
	cnt, err := repo.executeNamed(ctx, repo.getExec(exec), q, mtr)
	if err != nil {
		return tenant.Mentor{}, errors.Wrap(err, "updating mentor")
	}
	if cnt == 0 {
		return tenant.Mentor{}, tenant.ErrNotFound
	}
	return mtr, nil
}

func (repo tenantRepository) DeleteMentor(ctx context.Context, mtr tenant.Mentor, exec ...core.DBExecutor) error {
	// profiles and study records follow the user accounts through ON DELETE CASCADE
	q := "DELETE FROM users WHERE id IN (SELECT user_id FROM students WHERE mentor_id = ?) OR id = ?"
	cnt, err := repo.execute(ctx, repo.getExec(exec), q, mtr.ID, mtr.UserID)
	if err != nil {
		return errors.Wrap(err, "deleting mentor")
	}
	if cnt == 0 {
		return tenant.ErrNotFound
	}
	return nil
}

// Students

func studentWhere(filter tenant.StudentFilter) where {
	w := where{}
	if filter.ID != "" {
		w.add("id = ?", filter.ID)
	}
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.MentorID != "" {
		w.add("mentor_id = ?", filter.MentorID)
	}
	if filter.AdministratorID != "" {
		w.add("mentor_id IN (SELECT id FROM mentors WHERE administrator_id = ?)", filter.AdministratorID)
	}
	if filter.Active != nil {
		w.add("active = ?", *filter.Active)
	}
	return w
}

func validStudentFilter(filter tenant.StudentFilter) bool {
	return validIDs(filter.ID, filter.UserID, filter.MentorID, filter.AdministratorID)
}

func (repo tenantRepository) CreateStudent(ctx context.Context, std tenant.Student, exec ...core.DBExecutor) (tenant.Student, error) {
	std.ID = newID()
	q := "INSERT INTO students (" + studentColumns + ") VALUES " +
		"(:id, :user_id, :mentor_id, :name, :email, :phone, :plan, :active, :created_at, :updated_at)"
	if _, err := repo.executeNamed(ctx, repo.getExec(exec), q, std); err != nil {
		return tenant.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo tenantRepository) GetStudent(ctx context.Context, filter tenant.StudentFilter, exec ...core.DBExecutor) (tenant.Student, error) {
	w := studentWhere(filter)
	if len(w.conds) == 0 || !validStudentFilter(filter) {
		return tenant.Student{}, tenant.ErrNotFound
	}

	var std tenant.Student
	if err := repo.get(ctx, repo.getExec(exec), &std, "SELECT "+studentColumns+" FROM students"+w.String(), w.args...); err != nil {
		return tenant.Student{}, trapNoRowsErr(err, tenant.ErrNotFound, "finding student")
	}
	return std, nil
}

func (repo tenantRepository) QueryStudents(ctx context.Context, filter tenant.StudentFilter, exec ...core.DBExecutor) ([]tenant.Student, error) {
	students := make([]tenant.Student, 0)
	if !validStudentFilter(filter) {
		return students, nil
	}
	w := studentWhere(filter)

	if err := repo.selectAll(ctx, repo.getExec(exec), &students, "SELECT "+studentColumns+" FROM students"+w.String()+" ORDER BY name, created_at", w.args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo tenantRepository) CountStudents(ctx context.Context, filter tenant.StudentFilter, exec ...core.DBExecutor) (int, error) {
	if !validStudentFilter(filter) {
		return 0, nil
	}
	w := studentWhere(filter)

	var cnt int
	if err := repo.get(ctx, repo.getExec(exec), &cnt, "SELECT COUNT(*) FROM students"+w.String(), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return cnt, nil
}

func (repo tenantRepository) UpdateStudent(ctx context.Context, std tenant.Student, exec ...core.DBExecutor) (tenant.Student, error) {
	q := `UPDATE students SET mentor_id = :mentor_id, name = :name, email = :email, phone = :phone, plan = :plan,
		active = :active, updated_at = :updated_at
		WHERE id = :id`
	cnt, err := repo.executeNamed(ctx, repo.getExec(exec), q, std)
	if err != nil {
		return tenant.Student{}, errors.Wrap(err, "updating student")
	}
	if cnt == 0 {
		return tenant.Student{}, tenant.ErrNotFound
	}
	return std, nil
}

func (repo tenantRepository) DeleteStudent(ctx context.Context, std tenant.Student, exec ...core.DBExecutor) error {
	cnt, err := repo.execute(ctx, repo.getExec(exec), "DELETE FROM users WHERE id = ?", std.UserID)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if cnt == 0 {
		return tenant.ErrNotFound
	}
	return nil
}

// validIDs reports whether every non-empty id is a UUID. Postgres rejects malformed UUIDs.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if id != "" && !isUUID(id) {
			return false
		}
	}
	return true
}
