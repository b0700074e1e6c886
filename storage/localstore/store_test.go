package localstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/material"
	"github.com/somaedu/soma/core/session"
	"github.com/somaedu/soma/core/subject"
	"github.com/somaedu/soma/core/user"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func demoUser(name, username, email string) user.User {
	usr := user.User{
		ID:       core.NewID(),
		Name:     name,
		Username: username,
		Email:    email,
		Roles:    []string{user.RoleStudent},
	}
	usr.SetActive(true)
	return usr
}

func TestStoreAdd(t *testing.T) {
	s := openStore(t)
	usr := demoUser("Alex Thompson", "athompson", "student@elearn.com")
	require.NoError(t, s.Users().Add(usr))

	t.Run("duplicate id", func(t *testing.T) {
		err := s.Users().Add(usr)
		assert.Equal(t, ErrKeyExists, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := demoUser("Impostor", "impostor1", "Student@Elearn.com")
		err := s.Users().Add(dup)
		assert.Equal(t, ErrDuplicate, err)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := demoUser("Impostor", "athompson", "other@elearn.com")
		err := s.Users().Add(dup)
		assert.Equal(t, ErrDuplicate, err)
	})
}

func TestStoreGet(t *testing.T) {
	s := openStore(t)
	usr := demoUser("Alex Thompson", "athompson", "student@elearn.com")
	require.NoError(t, usr.SetPassword("S0me-pass!"))
	require.NoError(t, s.Users().Add(usr))

	got, err := s.Users().Get(usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr.Email, got.Email)
	assert.NoError(t, got.CheckPassword("S0me-pass!")) // hash survives the round trip

	_, err = s.Users().Get("01BXDEADBEEFDEADBEEFDEADBE")
	assert.Equal(t, ErrNotFound, err)
}

func TestStoreGetByIndex(t *testing.T) {
	s := openStore(t)
	usr := demoUser("Alex Thompson", "athompson", "student@elearn.com")
	require.NoError(t, s.Users().Add(usr))

	got, err := s.Users().GetByEmail("STUDENT@elearn.com")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	got, err = s.Users().GetByUsername("athompson")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = s.Users().GetByEmail("nobody@elearn.com")
	assert.Equal(t, ErrNotFound, err)
}

func TestStorePut(t *testing.T) {
	s := openStore(t)
	usr := demoUser("Alex Thompson", "athompson", "student@elearn.com")
	require.NoError(t, s.Users().Add(usr))

	t.Run("last write wins", func(t *testing.T) {
		first, second := usr, usr
		first.Name = "First Writer"
		second.Name = "Second Writer"
		require.NoError(t, s.Users().Put(first))
		require.NoError(t, s.Users().Put(second))

		got, err := s.Users().Get(usr.ID)
		require.NoError(t, err)
		assert.Equal(t, "Second Writer", got.Name)
	})

	t.Run("stale index entries are dropped", func(t *testing.T) {
		moved := usr
		moved.Email = "moved@elearn.com"
		require.NoError(t, s.Users().Put(moved))

		_, err := s.Users().GetByEmail("student@elearn.com")
		assert.Equal(t, ErrNotFound, err)

		// the freed address is takeable again
		other := demoUser("Newcomer", "newcomer1", "student@elearn.com")
		assert.NoError(t, s.Users().Add(other))
	})

	t.Run("unique index owned elsewhere", func(t *testing.T) {
		squatter := demoUser("Squatter", "squatter1", "squat@elearn.com")
		require.NoError(t, s.Users().Add(squatter))
		squatter.Email = "moved@elearn.com"
		err := s.Users().Put(squatter)
		assert.Equal(t, ErrDuplicate, err)
	})
}

func TestStoreDelete(t *testing.T) {
	s := openStore(t)
	usr := demoUser("Alex Thompson", "athompson", "student@elearn.com")
	require.NoError(t, s.Users().Add(usr))

	require.NoError(t, s.Users().Delete(usr.ID))
	_, err := s.Users().Get(usr.ID)
	assert.Equal(t, ErrNotFound, err)
	_, err = s.Users().GetByEmail(usr.Email)
	assert.Equal(t, ErrNotFound, err)

	// absent delete is a no-op
	assert.NoError(t, s.Users().Delete(usr.ID))
}

func TestStoreGetAllSkipsIndexEntries(t *testing.T) {
	s := openStore(t)
	for _, usr := range []user.User{
		demoUser("A", "user_aaaa", "a@elearn.com"),
		demoUser("B", "user_bbbb", "b@elearn.com"),
		demoUser("C", "user_cccc", "c@elearn.com"),
	} {
		require.NoError(t, s.Users().Add(usr))
	}
	users, err := s.Users().All()
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestOfflineCacheIdempotency(t *testing.T) {
	s := openStore(t)
	mat := material.Material{
		ID:       core.NewID(),
		Title:    "Introduction to Web Development",
		FileName: "web-dev-intro.pdf",
		FileType: material.TypePDF,
	}

	first, err := s.CacheMaterial(mat, []byte("v1"))
	require.NoError(t, err)
	second, err := s.CacheMaterial(mat, []byte("v2"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	cached, err := s.CachedMaterials()
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, []byte("v2"), cached[0].Blob)

	require.NoError(t, s.DropCached(mat.ID))
	_, err = s.CachedMaterial(mat.ID)
	assert.Equal(t, ErrNotFound, err)

	// absent drop is a no-op
	assert.NoError(t, s.DropCached(mat.ID))
}

func TestSubjectDeleteCascades(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SeedDemoData())

	sub, err := s.Subjects().GetByName("Matematika")
	require.NoError(t, err)
	quizzes, err := s.Quizzes().BySubject(sub.ID)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	questions, err := s.Questions().ByQuiz(quizzes[0].ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	require.NoError(t, s.Subjects().Delete(sub.ID))

	mats, err := s.Materials().BySubject(sub.ID)
	require.NoError(t, err)
	assert.Empty(t, mats)
	remaining, err := s.Quizzes().BySubject(sub.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	for _, qn := range questions {
		_, err := s.Questions().Get(qn.ID)
		assert.Equal(t, ErrNotFound, err)
	}
	msgs, err := s.Messages().BySubject(sub.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSeedDemoDataIdempotent(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SeedDemoData())
	require.NoError(t, s.SeedDemoData())

	users, err := s.Users().All()
	require.NoError(t, err)
	assert.Len(t, users, 3)
	subjects, err := s.Subjects().All()
	require.NoError(t, err)
	assert.Len(t, subjects, 1)

	// seeded accounts can authenticate
	usr, err := s.Users().GetByEmail("student@elearn.com")
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword(DemoPassword))
}

func TestSubjectNameUnique(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Subjects().Add(subject.Subject{ID: core.NewID(), Name: "Matematika", CreatedAt: time.Now().UTC()}))
	err := s.Subjects().Add(subject.Subject{ID: core.NewID(), Name: "matematika", CreatedAt: time.Now().UTC()})
	assert.Equal(t, ErrDuplicate, err)
}

func TestSettingsSlot(t *testing.T) {
	s := openStore(t)
	slot := s.Settings()

	id, err := slot.Read()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, slot.Write("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	id, err = slot.Read()
	require.NoError(t, err)
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", id)

	require.NoError(t, slot.Clear())
	id, err = slot.Read()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestResolverOfflineSession(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.SeedDemoData())

	mgr := session.NewManager(s.Settings(), NewResolver(s), nil)

	t.Run("login and rehydrate", func(t *testing.T) {
		usr, err := mgr.Login(ctx, "student@elearn.com", DemoPassword)
		require.NoError(t, err)

		fresh := session.NewManager(s.Settings(), NewResolver(s), nil)
		fresh.Startup(ctx)
		cur, ok := fresh.Current()
		require.True(t, ok)
		assert.Equal(t, usr.ID, cur.ID)
	})

	t.Run("bad password", func(t *testing.T) {
		_, err := mgr.Login(ctx, "student@elearn.com", "wrong")
		assert.Equal(t, session.ErrBadCredentials, err)
	})

	t.Run("register duplicate email", func(t *testing.T) {
		_, err := mgr.Register(ctx, user.NewUser{
			Name:     "Impostor",
			Email:    "student@elearn.com",
			Password: DemoPassword,
		})
		assert.Error(t, err)
	})

	t.Run("logout clears the slot", func(t *testing.T) {
		mgr.Logout()
		id, err := s.Settings().Read()
		require.NoError(t, err)
		assert.Empty(t, id)
	})
}
