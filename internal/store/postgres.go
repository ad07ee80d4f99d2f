package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/internal/config"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// holidayRow is the holidays table
type holidayRow struct {
	HolidayDate  time.Time `gorm:"column:holiday_date;type:date;primaryKey"`
	CountryCode  string    `gorm:"column:country_code;primaryKey"`
	Name         string    `gorm:"column:name"`
	HolidayType  string    `gorm:"column:holiday_type"`
	IsWorkingDay bool      `gorm:"column:is_working_day"`
	Description  string    `gorm:"column:description"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (holidayRow) TableName() string {
	return "holidays"
}

func rowFromHoliday(h calendar.Holiday) holidayRow {
	return holidayRow{
		HolidayDate:  h.Date,
		CountryCode:  h.CountryCode,
		Name:         h.Name,
		HolidayType:  h.Type,
		IsWorkingDay: h.IsWorkingDay,
		Description:  h.Description,
	}
}

func (r holidayRow) holiday() calendar.Holiday {
	return calendar.Holiday{
		Date:         dateutil.DateOf(r.HolidayDate),
		Name:         r.Name,
		Type:         r.HolidayType,
		IsWorkingDay: r.IsWorkingDay,
		Description:  r.Description,
		CountryCode:  r.CountryCode,
	}
}

// Postgres stores holidays in PostgreSQL through gorm
type Postgres struct {
	db      *gorm.DB
	country string
	logger  *zap.Logger
}

// NewPostgres connects, applies pending migrations and returns the store
func NewPostgres(cfg config.PostgresConfig, country string, logger *zap.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(sqlDB, logger); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info("Connected to holiday database",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.Name))

	return &Postgres{
		db:      db,
		country: countryOrDefault(country),
		logger:  logger,
	}, nil
}

// RunMigrations applies the embedded schema migrations
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("Database migration is dirty", zap.Uint("version", version))
	} else {
		logger.Info("Database migrations applied", zap.Uint("version", version))
	}

	return nil
}

// FetchAll returns every stored holiday for the store's country
func (p *Postgres) FetchAll(ctx context.Context) ([]calendar.Holiday, error) {
	var rows []holidayRow
	err := p.db.WithContext(ctx).
		Where("country_code = ?", p.country).
		Order("holiday_date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	return holidays(rows), nil
}

// FetchRange returns the stored holidays between from and to inclusive
func (p *Postgres) FetchRange(ctx context.Context, from, to time.Time) ([]calendar.Holiday, error) {
	start, end := rangeKeys(from, to)

	var rows []holidayRow
	err := p.db.WithContext(ctx).
		Where("country_code = ? AND holiday_date BETWEEN ? AND ?", p.country, start, end).
		Order("holiday_date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	return holidays(rows), nil
}

// Upsert writes records and returns how many were written
func (p *Postgres) Upsert(ctx context.Context, records []calendar.Holiday) (int, error) {
	records = prepare(records, p.country)
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]holidayRow, 0, len(records))
	for _, h := range records {
		rows = append(rows, rowFromHoliday(h))
	}

	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "holiday_date"}, {Name: "country_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "holiday_type", "is_working_day", "description", "updated_at"}),
	}).CreateInBatches(rows, 100).Error
	if err != nil {
		return 0, fmt.Errorf("failed to upsert holidays: %w", err)
	}

	p.logger.Info("Holidays stored", zap.Int("count", len(rows)))
	return len(rows), nil
}

// Close closes the underlying connection pool
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func holidays(rows []holidayRow) []calendar.Holiday {
	out := make([]calendar.Holiday, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.holiday())
	}
	return out
}
