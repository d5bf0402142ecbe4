package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

type recommendationRow struct {
	ID                  string                   `gorm:"primaryKey;size:64"`
	Symbol              string                   `gorm:"index:idx_symbol_created,priority:1;size:32;not null"`
	Action              string                   `gorm:"size:8;not null"`
	Confidence          float64                  `gorm:"not null"`
	Composite           float64                  `gorm:"not null"`
	NewsSentiment       *float64                 `gorm:"column:news_sentiment"`
	TechnicalScore      *float64                 `gorm:"column:technical_score"`
	FundamentalScore    *float64                 `gorm:"column:fundamental_score"`
	Reasoning           string                   `gorm:"type:text"`
	MissingSignals      []types.SignalKind       `gorm:"serializer:json"`
	RecentNews          []types.ScoredArticle    `gorm:"serializer:json"`
	TechnicalIndicators *types.TechnicalSnapshot `gorm:"serializer:json"`
	CreatedAt           time.Time                `gorm:"index:idx_symbol_created,priority:2"`
}

func (recommendationRow) TableName() string { return "recommendations" }

type changeRow struct {
	ID               string    `gorm:"primaryKey;size:64"`
	Symbol           string    `gorm:"index;size:32;not null"`
	RecommendationID string    `gorm:"size:64"`
	PreviousAction   string    `gorm:"size:8;not null"`
	NewAction        string    `gorm:"size:8;not null"`
	Confidence       float64   `gorm:"not null"`
	DetectedAt       time.Time `gorm:"index"`
}

func (changeRow) TableName() string { return "recommendation_changes" }

// SQLite persists history with gorm in a single database file.
type SQLite struct {
	db *gorm.DB
}

var _ interfaces.RecommendationStore = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path and migrates the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&recommendationRow{}, &changeRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) LatestRecommendation(ctx context.Context, symbol string) (*types.Recommendation, error) {
	var row recommendationRow
	err := s.db.WithContext(ctx).
		Where("symbol = ?", types.NormalizeSymbol(symbol)).
		Order("created_at DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := row.toDomain()
	return &rec, nil
}

func (s *SQLite) SaveRecommendation(ctx context.Context, rec types.Recommendation) error {
	row := fromRecommendation(rec)
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *SQLite) AppendChange(ctx context.Context, c types.RecommendationChange) error {
	row := changeRow{
		ID:               c.ID,
		Symbol:           c.Symbol,
		RecommendationID: c.RecommendationID,
		PreviousAction:   string(c.PreviousAction),
		NewAction:        string(c.NewAction),
		Confidence:       c.Confidence,
		DetectedAt:       c.DetectedAt.UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *SQLite) ChangesSince(ctx context.Context, since time.Time) ([]types.RecommendationChange, error) {
	var rows []changeRow
	err := s.db.WithContext(ctx).
		Where("detected_at >= ?", since.UTC()).
		Order("detected_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]types.RecommendationChange, len(rows))
	for i, r := range rows {
		out[i] = types.RecommendationChange{
			ID:               r.ID,
			Symbol:           r.Symbol,
			RecommendationID: r.RecommendationID,
			PreviousAction:   types.Action(r.PreviousAction),
			NewAction:        types.Action(r.NewAction),
			Confidence:       r.Confidence,
			DetectedAt:       r.DetectedAt.UTC(),
		}
	}
	return out, nil
}

func (s *SQLite) Symbols(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).Model(&recommendationRow{}).
		Distinct("symbol").Order("symbol").Pluck("symbol", &out).Error
	return out, err
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fromRecommendation(r types.Recommendation) recommendationRow {
	return recommendationRow{
		ID:                  r.ID,
		Symbol:              r.Symbol,
		Action:              string(r.Action),
		Confidence:          r.Confidence,
		Composite:           r.Composite,
		NewsSentiment:       r.NewsSentiment,
		TechnicalScore:      r.TechnicalScore,
		FundamentalScore:    r.FundamentalScore,
		Reasoning:           r.Reasoning,
		MissingSignals:      r.MissingSignals,
		RecentNews:          r.RecentNews,
		TechnicalIndicators: r.TechnicalIndicators,
		CreatedAt:           r.CreatedAt.UTC(),
	}
}

func (row recommendationRow) toDomain() types.Recommendation {
	return types.Recommendation{
		ID:                  row.ID,
		Symbol:              row.Symbol,
		Action:              types.Action(row.Action),
		Confidence:          row.Confidence,
		Composite:           row.Composite,
		NewsSentiment:       row.NewsSentiment,
		TechnicalScore:      row.TechnicalScore,
		FundamentalScore:    row.FundamentalScore,
		Reasoning:           row.Reasoning,
		MissingSignals:      row.MissingSignals,
		RecentNews:          row.RecentNews,
		TechnicalIndicators: row.TechnicalIndicators,
		CreatedAt:           row.CreatedAt.UTC(),
	}
}
