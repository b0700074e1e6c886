package localstore

import "github.com/somaedu/soma/core/session"

const currentUserKey = "current_user_id"

// SettingsSlot is the durable identity slot of the portal, backed by the
// settings collection. An absent key reads as "".
type SettingsSlot struct {
	s *Store
}

var _ session.Slot = (*SettingsSlot)(nil)

func (s *Store) Settings() *SettingsSlot {
	return &SettingsSlot{s: s}
}

func (sl *SettingsSlot) Read() (string, error) {
	var id string
	err := sl.s.Get(colSettings, currentUserKey, &id)
	if err == ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (sl *SettingsSlot) Write(id string) error {
	return sl.s.Put(colSettings, currentUserKey, id)
}

func (sl *SettingsSlot) Clear() error {
	return sl.s.Delete(colSettings, currentUserKey)
}
