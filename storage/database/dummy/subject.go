package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/somaedu/soma/core/subject"
)

type subjectRepository struct {
	db       *DB
	subjects *subjectTable
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db, subjects: db.subject}
}

func (repo *subjectRepository) query() []subject.Subject {
	subs := make([]subject.Subject, 0, len(repo.subjects.table))
	for _, sub := range repo.subjects.table {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs
}

func (repo *subjectRepository) CheckNameUniqueness(_ context.Context, name string, excluded ...subject.Subject) error {
	repo.subjects.RLock()
	defer repo.subjects.RUnlock()

	skip := make(map[string]struct{}, len(excluded))
	for _, sub := range excluded {
		skip[sub.ID] = struct{}{}
	}
	for _, sub := range repo.query() {
		if _, ok := skip[sub.ID]; ok {
			continue
		}
		if strings.EqualFold(sub.Name, name) {
			return subject.ErrNameExists
		}
	}
	return nil
}

func (repo *subjectRepository) CreateSubject(_ context.Context, sub subject.Subject) (subject.Subject, error) {
	repo.subjects.Lock()
	defer repo.subjects.Unlock()

	repo.subjects.table[sub.ID] = &sub
	return sub, nil
}

func (repo *subjectRepository) QueryAllSubjects(_ context.Context) ([]subject.Subject, error) {
	repo.subjects.RLock()
	defer repo.subjects.RUnlock()
	return repo.query(), nil
}

func (repo *subjectRepository) GetSubjectByID(_ context.Context, id string) (subject.Subject, error) {
	repo.subjects.RLock()
	defer repo.subjects.RUnlock()

	if sub, ok := repo.subjects.table[id]; ok {
		return *sub, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) UpdateSubject(_ context.Context, sub subject.Subject) (subject.Subject, error) {
	repo.subjects.Lock()
	defer repo.subjects.Unlock()

	if _, ok := repo.subjects.table[sub.ID]; !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	repo.subjects.table[sub.ID] = &sub
	return sub, nil
}

// DeleteSubjectsByID cascades to the subjects' materials, quizzes (with
// questions and answers) and discussion messages, like the SQL schema does.
func (repo *subjectRepository) DeleteSubjectsByID(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		mats, err := NewMaterialRepository(repo.db).QueryMaterialsBySubject(ctx, id)
		if err != nil {
			return err
		}
		for _, mat := range mats {
			if err := NewMaterialRepository(repo.db).DeleteMaterialsByID(ctx, mat.ID); err != nil {
				return err
			}
		}

		quizRepo := NewQuizRepository(repo.db)
		quizzes, err := quizRepo.QueryQuizzesBySubject(ctx, id)
		if err != nil {
			return err
		}
		for _, qz := range quizzes {
			if err := quizRepo.DeleteQuizzesByID(ctx, qz.ID); err != nil {
				return err
			}
		}

		if err := NewChatRepository(repo.db).DeleteMessagesBySubject(ctx, id); err != nil {
			return err
		}

		repo.subjects.Lock()
		delete(repo.subjects.table, id)
		repo.subjects.Unlock()
	}
	return nil
}
