package main

import (
	"log"
	"os"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/category"
	"github.com/trezcool/elimu/core/seed"
	logsvc "github.com/trezcool/elimu/services/logger"
	"github.com/trezcool/elimu/storage/database"
	sqlxrepos "github.com/trezcool/elimu/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewStdLogger("ADMIN : ", conf)
	appLogger := logsvc.NewRollbarLogger(logger, conf)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)

	// start CLI
	repos := sqlxrepos.NewRepositories(db)
	cli := commandLine{
		db:      db,
		usrRepo: repos.User,
		seeder:  seed.NewSeeder(seed.Categories(category.NewService(repos.Category), appLogger)),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	appLogger.Close()
	if err != nil {
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
