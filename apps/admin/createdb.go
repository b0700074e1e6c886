package main

import (
	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/storage/database"
)

var createDBFunc = database.CreateIfNotExist // mockable

func (cli *commandLine) createDB() error {
	return createDBFunc(core.Conf)
}
