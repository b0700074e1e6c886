package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/somaedu/soma/core/subject"
)

const selectSubject = `SELECT id, name, created_at FROM subject`

type dbSubject struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (ds dbSubject) toSubject() subject.Subject {
	return subject.Subject(ds)
}

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *sqlx.DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CheckNameUniqueness(ctx context.Context, name string, excluded ...subject.Subject) error {
	excludedIDs := pq.StringArray{}
	for _, sub := range excluded {
		excludedIDs = append(excludedIDs, sub.ID)
	}
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM subject WHERE lower(name) = lower($1) AND id <> ALL($2))`,
		name, excludedIDs,
	)
	if err != nil {
		return err
	}
	if exists {
		return subject.ErrNameExists
	}
	return nil
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO subject (id, name, created_at) VALUES ($1, $2, $3)`,
		sub.ID, sub.Name, sub.CreatedAt,
	)
	return sub, err
}

func (repo *subjectRepository) QueryAllSubjects(ctx context.Context) ([]subject.Subject, error) {
	var rows []dbSubject
	if err := repo.db.SelectContext(ctx, &rows, selectSubject+" ORDER BY name"); err != nil {
		return nil, err
	}
	subs := make([]subject.Subject, 0, len(rows))
	for _, ds := range rows {
		subs = append(subs, ds.toSubject())
	}
	return subs, nil
}

func (repo *subjectRepository) GetSubjectByID(ctx context.Context, id string) (subject.Subject, error) {
	var ds dbSubject
	err := repo.db.GetContext(ctx, &ds, selectSubject+" WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return subject.Subject{}, subject.ErrNotFound
	}
	if err != nil {
		return subject.Subject{}, err
	}
	return ds.toSubject(), nil
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE subject SET name = $2 WHERE id = $1`, sub.ID, sub.Name)
	if err != nil {
		return subject.Subject{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return sub, nil
}

// DeleteSubjectsByID relies on ON DELETE CASCADE for the subjects' materials,
// quizzes, questions, answers and discussion messages.
func (repo *subjectRepository) DeleteSubjectsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM subject WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}
