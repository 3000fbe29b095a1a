package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/fs"
)

const dialect = "postgres"

func open(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sql.Open(conf.Database.Engine, u.String())
}

// Open returns a sqlx handle on the app database.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(db, conf.Database.Engine), nil
}

// Ping checks once that the database is reachable.
func Ping(ctx context.Context, db *sqlx.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	return nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func createAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS(SELECT 1 FROM pg_roles WHERE rolname = $1)", conf.Database.User); err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !exists {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err := db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sqlx.DB, conf *core.Config) error {
	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name); err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the app user and database, connecting as the admin user.
func CreateIfNotExist(conf *core.Config) error {
	admin, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = admin.Close() }()

	if err = ping(admin); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(sqlx.NewDb(admin, conf.Database.Engine), conf); err != nil {
		return err
	}

	// create DB as app user
	db, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	return createDB(sqlx.NewDb(db, conf.Database.Engine), conf)
}

// RunMigrations runs a goose command (up, down, status, ...) against the embedded migrations.
func RunMigrations(command string, db *sql.DB, args ...string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	return goose.Run(command, db, appfs.MigrationsDir, args...)
}

func Migrate(db *sql.DB) error {
	if err := RunMigrations("up", db); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
