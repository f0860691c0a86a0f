package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cyberguard/internal/domain/threat"
	"cyberguard/internal/errs"
	"cyberguard/internal/infrastructure/persistence/sqlite/model"
	"cyberguard/internal/ports"
)

type HoneypotRepository struct {
	db      *gorm.DB
	maxRows int
}

var _ ports.HoneypotRepository = (*HoneypotRepository)(nil)

func NewHoneypotRepository(db *gorm.DB, maxRows int) *HoneypotRepository {
	return &HoneypotRepository{db: db, maxRows: maxRows}
}

func (r *HoneypotRepository) Insert(ctx context.Context, event threat.HoneypotEvent) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	if strings.TrimSpace(event.ID) == "" {
		return errors.New("event id is required")
	}
	if strings.TrimSpace(event.ScamType) == "" {
		return errors.New("scam type is required")
	}

	row := model.HoneypotEvent{
		ID:         event.ID,
		ScamType:   event.ScamType,
		IncidentID: event.IncidentID,
		Intel:      event.Intel,
		CreatedAt:  event.CreatedAt,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return errs.Wrap(result.Error, "insert honeypot event")
	}
	if result.RowsAffected == 0 {
		return ports.ErrDuplicateID
	}

	if r.maxRows > 0 {
		if err := r.prune(ctx); err != nil {
			return errs.Wrap(err, "prune honeypot events")
		}
	}
	return nil
}

func (r *HoneypotRepository) ListRecent(ctx context.Context) ([]threat.HoneypotEvent, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	var rows []model.HoneypotEvent
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(ports.RecentEventsCap).
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query honeypot events")
	}

	items := make([]threat.HoneypotEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, threat.HoneypotEvent{
			ID:         row.ID,
			ScamType:   row.ScamType,
			IncidentID: row.IncidentID,
			Intel:      row.Intel,
			CreatedAt:  row.CreatedAt,
		})
	}
	return items, nil
}

func (r *HoneypotRepository) prune(ctx context.Context) error {
	keep := r.db.WithContext(ctx).
		Model(&model.HoneypotEvent{}).
		Select("id").
		Order("created_at desc").
		Limit(r.maxRows)

	return r.db.WithContext(ctx).
		Where("id NOT IN (?)", keep).
		Delete(&model.HoneypotEvent{}).Error
}
