package main

import (
	"log"
	"os"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/storage/database"
	dummydb "github.com/somaedu/soma/storage/database/dummy"
	sqlxrepos "github.com/somaedu/soma/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up storage; the connection is lazy so `createdb` can run against a
	// fresh server
	var cli commandLine
	if core.Conf.Database.Engine == "postgres" {
		db, err := database.Open(core.Conf)
		errAndDie(err)
		defer db.Close()
		cli = commandLine{
			db:      db.DB,
			usrRepo: sqlxrepos.NewUserRepository(db),
		}
	} else {
		db, err := dummydb.Open()
		errAndDie(err)
		cli = commandLine{usrRepo: dummydb.NewUserRepository(db)}
	}

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
