// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"solana-arbscan/internal/storage"
	"solana-arbscan/internal/storage/models"
)

// gormLogger bridges GORM's logger.Interface onto zap.
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}

	if l.logLevel >= logger.Info {
		l.zapLogger.Info("trace", fields...)
	}
}

// postgresStorage implements storage.Storage on GORM/Postgres.
type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStorage(dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	gormLogger := newGormLogger(zapLogger.Named("gorm"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

// RunMigrations auto-migrates the schema under an advisory lock so
// concurrent scanner instances cannot race the DDL.
func (p *postgresStorage) RunMigrations() error {
	var lockObtained bool
	err := p.db.Raw("SELECT pg_try_advisory_lock(311)").Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(311)")

	err = p.db.AutoMigrate(
		&models.Opportunity{},
		&models.Snapshot{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (p *postgresStorage) SaveOpportunities(ctx context.Context, opportunities []*models.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}
	return p.db.WithContext(ctx).Create(opportunities).Error
}

func (p *postgresStorage) ListOpportunities(ctx context.Context, pairKey string, limit, offset int) ([]*models.Opportunity, error) {
	var opportunities []*models.Opportunity
	query := p.db.WithContext(ctx)
	if pairKey != "" {
		query = query.Where("pair = ?", pairKey)
	}
	err := query.
		Order("observed_at desc").
		Limit(limit).
		Offset(offset).
		Find(&opportunities).Error
	return opportunities, err
}

func (p *postgresStorage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	return p.db.WithContext(ctx).Create(snapshot).Error
}

func (p *postgresStorage) ListSnapshots(ctx context.Context, pairKey string, limit, offset int) ([]*models.Snapshot, error) {
	var snapshots []*models.Snapshot
	query := p.db.WithContext(ctx)
	if pairKey != "" {
		query = query.Where("pair = ?", pairKey)
	}
	err := query.
		Order("observed_at desc").
		Limit(limit).
		Offset(offset).
		Find(&snapshots).Error
	return snapshots, err
}

func (p *postgresStorage) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
