package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cyberguard/internal/domain/threat"
	"cyberguard/internal/errs"
	"cyberguard/internal/infrastructure/persistence/sqlite/model"
	"cyberguard/internal/ports"
)

type IncidentRepository struct {
	db *gorm.DB

	// maxRows bounds table growth after each insert. Zero keeps everything.
	maxRows int
}

var _ ports.IncidentRepository = (*IncidentRepository)(nil)

func NewIncidentRepository(db *gorm.DB, maxRows int) *IncidentRepository {
	return &IncidentRepository{db: db, maxRows: maxRows}
}

func (r *IncidentRepository) Insert(ctx context.Context, incident threat.Incident) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	if strings.TrimSpace(incident.ID) == "" {
		return errors.New("incident id is required")
	}
	if err := threat.ValidateKind(incident.Kind); err != nil {
		return err
	}

	patterns := incident.Patterns
	if patterns == nil {
		patterns = []string{}
	}
	rawPatterns, err := json.Marshal(patterns)
	if err != nil {
		return errs.Wrap(err, "marshal patterns")
	}

	row := model.Incident{
		ID:        incident.ID,
		Kind:      string(incident.Kind),
		Target:    incident.Target,
		CreatedAt: incident.CreatedAt,
		RiskScore: incident.RiskScore,
		Patterns:  string(rawPatterns),
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return errs.Wrap(result.Error, "insert incident")
	}
	if result.RowsAffected == 0 {
		return ports.ErrDuplicateID
	}

	if r.maxRows > 0 {
		if err := r.prune(ctx); err != nil {
			return errs.Wrap(err, "prune incidents")
		}
	}
	return nil
}

func (r *IncidentRepository) ListAll(ctx context.Context) ([]threat.Incident, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	var rows []model.Incident
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query incidents")
	}

	items := make([]threat.Incident, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapIncident(row))
	}
	return items, nil
}

func (r *IncidentRepository) prune(ctx context.Context) error {
	keep := r.db.WithContext(ctx).
		Model(&model.Incident{}).
		Select("id").
		Order("created_at desc").
		Limit(r.maxRows)

	return r.db.WithContext(ctx).
		Where("id NOT IN (?)", keep).
		Delete(&model.Incident{}).Error
}

func mapIncident(row model.Incident) threat.Incident {
	patterns := make([]string, 0)
	if err := json.Unmarshal([]byte(row.Patterns), &patterns); err != nil {
		patterns = make([]string, 0)
	}

	return threat.Incident{
		ID:        row.ID,
		Kind:      threat.IncidentKind(row.Kind),
		Target:    row.Target,
		CreatedAt: row.CreatedAt,
		RiskScore: row.RiskScore,
		Patterns:  patterns,
	}
}
