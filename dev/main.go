package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	devenv "yoktez-backend/dev/env"
	tezdb "yoktez-backend/services/tez/db"

	_ "modernc.org/sqlite"
)

func createDb(filename, schema string) error {
	dbpath, err := devenv.ResolvePath(filepath.Join("<dev_state>", filename))
	if err != nil {
		return err
	}

	_, err = os.Stat(dbpath)
	if err == nil {
		fmt.Println("database already created at", dbpath)
		return nil
	}

	fmt.Println("creating database at", dbpath)
	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(schema)
	return err
}

func create(recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		err = os.RemoveAll("dev/.state")
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	err = os.MkdirAll("dev/.state", 0777)
	if err != nil && !os.IsExist(err) {
		return err
	}

	err = createDb("tez_archive.db", tezdb.Schema)
	if err != nil {
		return err
	}

	slog.Info("live-portal tests skip themselves unless dev/.state/portal.json5 exists, see dev/env for its shape")
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created successfully!")
}
