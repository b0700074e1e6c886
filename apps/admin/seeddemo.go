package main

import (
	"errors"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/storage/localstore"
)

// seedDemo loads the demo accounts, subjects and quizzes into the local
// store so the portal can be tried out without a database.
func (cli *commandLine) seedDemo(path string) error {
	if path == "" {
		path = core.Conf.LocalStore.Path
	}
	if path == "" {
		return errors.New("no local store path configured")
	}

	store, err := localstore.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return store.SeedDemoData()
}
