package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/session"
	"github.com/somaedu/soma/storage/localstore"
)

// consoleNotifier prints session events where the portal would raise a toast.
type consoleNotifier struct{}

func (consoleNotifier) Notify(title, detail string) {
	fmt.Printf("%s: %s\n", title, detail)
}

// demoLogin exercises the offline portal session against the local store:
// seed, rehydrate any previous session from the durable slot, then log in
// with the given credentials. The slot keeps the identity for the next run.
func (cli *commandLine) demoLogin(path, email, pwd string) error {
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

	if err := store.SeedDemoData(); err != nil {
		return err
	}

	mgr := session.NewManager(store.Settings(), localstore.NewResolver(store), consoleNotifier{})

	ctx := context.Background()
	mgr.Startup(ctx)
	if usr, ok := mgr.Current(); ok {
		fmt.Printf("resumed previous session: %s <%s>\n", usr.Name, usr.Email)
	}

	usr, err := mgr.Login(ctx, email, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("logged in: %s <%s> roles=%v\n", usr.Name, usr.Email, usr.Roles)
	return nil
}
