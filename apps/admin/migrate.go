package main

import (
	"context"

	"github.com/orbitaplataforma/orbita/storage/database"
)

var gooseRunFunc = database.RunGoose // mockable

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(context.Background(), cli.db, args[0], args[1:]...)
}
