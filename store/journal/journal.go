// Package journal opens a receipt journal backend by driver name.
//
// Hosts pick a backend from configuration:
//
//	s, err := journal.Open(ctx, journal.SQLite, "file:fundme.db")
//
// or adapt a grove database they already manage:
//
//	s, err := journal.FromGrove(db)
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/fundme/store"
	"github.com/xraph/fundme/store/leveldb"
	"github.com/xraph/fundme/store/memory"
	"github.com/xraph/fundme/store/mongo"
	"github.com/xraph/fundme/store/postgres"
	fundmeredis "github.com/xraph/fundme/store/redis"
	"github.com/xraph/fundme/store/sqlite"
)

// Driver names accepted by Open.
const (
	Memory   = "memory"
	LevelDB  = "leveldb"
	Redis    = "redis"
	Postgres = "postgres"
	SQLite   = "sqlite"
	Mongo    = "mongo"
)

// ErrUnknownDriver is returned for driver names Open does not know.
var ErrUnknownDriver = errors.New("journal: unknown driver")

// Drivers lists the names accepted by Open.
func Drivers() []string {
	return []string{Memory, LevelDB, Redis, Postgres, SQLite, Mongo}
}

// Open connects the journal named by driver. dsn is the LevelDB directory,
// a Redis address or redis:// URL, or the database connection string. An
// empty driver selects the memory journal.
func Open(ctx context.Context, driver, dsn string) (store.Store, error) {
	switch strings.ToLower(driver) {
	case "", Memory:
		return memory.New(), nil
	case LevelDB:
		if dsn == "" {
			return nil, fmt.Errorf("journal: %s requires a directory", LevelDB)
		}
		return leveldb.Open(dsn)
	case Redis:
		return openRedis(dsn)
	case Postgres, "pg":
		pg := pgdriver.New()
		if err := pg.Open(ctx, dsn); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		return fromDriver(pg)
	case SQLite:
		sdb := sqlitedriver.New()
		if err := sdb.Open(ctx, dsn); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		return fromDriver(sdb)
	case Mongo, "mongodb":
		mdb := mongodriver.New()
		if err := mdb.Open(ctx, dsn); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		return fromDriver(mdb)
	default:
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}
}

// FromGrove builds the journal matching db's driver.
func FromGrove(db *grove.DB) (store.Store, error) {
	if db == nil {
		return nil, errors.New("journal: nil grove database")
	}
	switch db.Driver().(type) {
	case *pgdriver.PgDB:
		return postgres.New(db), nil
	case *sqlitedriver.SqliteDB:
		return sqlite.New(db), nil
	case *mongodriver.MongoDB:
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, db.Driver().Name())
	}
}

func fromDriver(drv grove.GroveDriver) (store.Store, error) {
	db, err := grove.Open(drv)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("journal: %w", err)
	}
	return FromGrove(db)
}

func openRedis(dsn string) (store.Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("journal: %s requires an address", Redis)
	}
	if !strings.Contains(dsn, "://") {
		return fundmeredis.Open(dsn, "", 0), nil
	}
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return fundmeredis.New(redis.NewClient(opts)), nil
}
