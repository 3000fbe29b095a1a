package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/settings"
	"github.com/trezcool/mwalimu/storage/database"
	"github.com/trezcool/mwalimu/storage/localstore"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up the local store (settings)
	local, err := localstore.Open(conf.Storage.LocalPath)
	errAndDie(err)
	defer local.Close()

	// set up DB
	var db *sql.DB
	if conf.Storage.Driver == core.StorageDriverPostgres {
		errAndDie(database.CreateIfNotExist(conf))
		sqlxDB, err := database.Open(conf)
		errAndDie(err)
		defer sqlxDB.Close()
		db = sqlxDB.DB
	}

	// start CLI
	cli := commandLine{
		db:          db,
		settingsSvc: settings.NewService(localstore.NewSettingsRepository(local), conf.DefaultPIN, nil),
		out:         os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		local.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
