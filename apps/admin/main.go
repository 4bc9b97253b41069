package main

import (
	"context"
	"fmt"
	"os"

	"github.com/orbitaplataforma/orbita/core"
	logsvc "github.com/orbitaplataforma/orbita/services/logger"
	"github.com/orbitaplataforma/orbita/storage/database"
	sqlxrepos "github.com/orbitaplataforma/orbita/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("ADMIN", conf.Debug), conf)
	logger.Enable(false)

	// set up DB
	if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = db.Ping(); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}
