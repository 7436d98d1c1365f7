package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/promptvault/promptvault/client/hctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const TableName = "prompts_responses"

// Exchange is one stored prompt/response pair. Rows are only ever inserted.
type Exchange struct {
	Id       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Prompt   string `json:"prompt" gorm:"type:text;not null"`
	Response string `json:"response" gorm:"type:text;not null"`
}

func (Exchange) TableName() string {
	return TableName
}

// Store persists exchanges. Every operation opens its own connection and closes it before returning.
type Store struct {
	config *hctx.ClientConfig
}

func NewStore(config *hctx.ClientConfig) *Store {
	return &Store{config: config}
}

func gormConfig() *gorm.Config {
	newLogger := logger.New(
		hctx.GetLogger().WithField("fromSQL", true),
		logger.Config{
			SlowThreshold:             100 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: false,
			Colorful:                  false,
		},
	)
	return &gorm.Config{SkipDefaultTransaction: true, Logger: newLogger}
}

// open connects to the configured database, or to the server's default database when maintenance is set.
func (s *Store) open(maintenance bool) (*DB, error) {
	var db *DB
	var err error
	switch s.config.Driver {
	case "mysql":
		dbName := s.config.Database
		if maintenance {
			dbName = ""
		}
		db, err = OpenMySQL(MySQLDSN(s.config, dbName), gormConfig())
	case "postgres":
		dbName := s.config.Database
		if maintenance {
			dbName = "postgres"
		}
		db, err = OpenPostgres(PostgresDSN(s.config, dbName), gormConfig())
	case "sqlite":
		var dbPath string
		dbPath, err = SQLitePath(s.config.Database)
		if err != nil {
			return nil, err
		}
		db, err = OpenSQLite(fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL", dbPath), gormConfig())
	default:
		return nil, fmt.Errorf("unsupported database driver %#v", s.config.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the DB: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping the DB: %w", err)
	}
	return db, nil
}

func (s *Store) withDB(ctx context.Context, maintenance bool, fn func(db *gorm.DB) error) (err error) {
	db, err := s.open(maintenance)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(db.WithContext(ctx))
}

// EnsureSchema creates the database and the exchanges table if they do not already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	hctx.GetLogger().Infof("Ensuring schema for database %#v (driver=%s)", s.config.Database, s.config.Driver)
	switch s.config.Driver {
	case "mysql":
		err := s.withDB(ctx, true, func(db *gorm.DB) error {
			return createMySQLDatabase(db, s.config.Database).Error
		})
		if err != nil {
			return fmt.Errorf("failed to create database %#v: %w", s.config.Database, err)
		}
	case "postgres":
		err := s.withDB(ctx, true, func(db *gorm.DB) error {
			var count int64
			if err := db.Raw("SELECT COUNT(*) FROM pg_database WHERE datname = ?", s.config.Database).Scan(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}
			return db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(s.config.Database)).Error
		})
		if err != nil {
			return fmt.Errorf("failed to create database %#v: %w", s.config.Database, err)
		}
	case "sqlite":
		dbPath, err := SQLitePath(s.config.Database)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o744); err != nil {
			return fmt.Errorf("failed to create directory for %#v: %w", dbPath, err)
		}
	}
	return s.withDB(ctx, false, func(db *gorm.DB) error {
		if db.Migrator().HasTable(&Exchange{}) {
			return nil
		}
		if err := db.Migrator().CreateTable(&Exchange{}); err != nil {
			return fmt.Errorf("failed to create table %s: %w", TableName, err)
		}
		return nil
	})
}

// Store inserts a new exchange and returns it with its assigned id.
func (s *Store) Store(ctx context.Context, prompt, response string) (*Exchange, error) {
	entry := &Exchange{Prompt: prompt, Response: response}
	err := s.withDB(ctx, false, func(db *gorm.DB) error {
		tx := db.Create(entry)
		if tx.Error != nil {
			return fmt.Errorf("tx.Error: %w", tx.Error)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store exchange: %w", err)
	}
	return entry, nil
}

// RetrieveLast returns the exchange with the highest id, or nil if there are none.
func (s *Store) RetrieveLast(ctx context.Context) (*Exchange, error) {
	entries, err := s.RetrieveRecent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// RetrieveRecent returns up to limit exchanges, newest first.
func (s *Store) RetrieveRecent(ctx context.Context, limit int) ([]*Exchange, error) {
	var entries []*Exchange
	err := s.withDB(ctx, false, func(db *gorm.DB) error {
		tx := db.Order("id DESC").Limit(limit).Find(&entries)
		if tx.Error != nil {
			return fmt.Errorf("tx.Error: %w", tx.Error)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve exchanges: %w", err)
	}
	return entries, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.withDB(ctx, false, func(db *gorm.DB) error {
		tx := db.Model(&Exchange{}).Count(&count)
		if tx.Error != nil {
			return fmt.Errorf("tx.Error: %w", tx.Error)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count exchanges: %w", err)
	}
	return count, nil
}

func hostPort(config *hctx.ClientConfig, defaultPort int) string {
	port := config.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(config.Host, strconv.Itoa(port))
}

// MySQLDSN builds a go-sql-driver DSN. An empty dbName connects without selecting a database.
func MySQLDSN(config *hctx.ClientConfig, dbName string) string {
	c := mysqldriver.NewConfig()
	c.User = config.User
	c.Passwd = config.Password
	c.Net = "tcp"
	c.Addr = hostPort(config, 3306)
	c.DBName = dbName
	c.ParseTime = true
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

func PostgresDSN(config *hctx.ClientConfig, dbName string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(config.User, config.Password),
		Host:     hostPort(config, 5432),
		Path:     "/" + dbName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// SQLitePath resolves a database name to a file. Bare names live in ~/.promptvault/.
func SQLitePath(name string) (string, error) {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name, nil
	}
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user's home directory: %w", err)
	}
	if filepath.Ext(name) == "" {
		name += ".db"
	}
	return filepath.Join(homedir, hctx.PROMPTVAULT_PATH, name), nil
}

func createMySQLDatabase(db *gorm.DB, name string) *gorm.DB {
	return db.Exec("CREATE DATABASE IF NOT EXISTS ?", clause.Table{Name: name})
}
