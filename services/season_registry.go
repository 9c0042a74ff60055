package services

import (
	"context"
	"time"

	"battle-pass-service/models"
	"battle-pass-service/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SeasonUpdate carries the fields an admin wants to change; nil means "leave as is".
type SeasonUpdate struct {
	Name      *string    `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type SeasonRegistry struct {
	DB    *gorm.DB
	Cache CatalogCache
	Log   *logrus.Entry
	Now   func() time.Time
}

func NewSeasonRegistry(db *gorm.DB, cache CatalogCache, log *logrus.Entry) *SeasonRegistry {
	if cache == nil {
		cache = NopCatalogCache{}
	}
	return &SeasonRegistry{DB: db, Cache: cache, Log: log, Now: time.Now}
}

func (s *SeasonRegistry) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// ListSeasons returns every season of the realm ordered by start date, with IsActive set for now.
func (s *SeasonRegistry) ListSeasons(ctx context.Context, realmID uint64) ([]models.Season, error) {
	if realmID == 0 {
		return nil, newValidationError("realm_id", "is required")
	}
	seasons, err := s.realmSeasons(ctx, realmID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range seasons {
		seasons[i].IsActive = seasons[i].Contains(now)
	}
	return seasons, nil
}

// GetActiveSeason returns the season live at the current instant, or nil when there is none.
func (s *SeasonRegistry) GetActiveSeason(ctx context.Context, realmID uint64) (*models.Season, error) {
	if realmID == 0 {
		return nil, newValidationError("realm_id", "is required")
	}
	seasons, err := s.realmSeasons(ctx, realmID)
	if err != nil {
		return nil, err
	}
	return SelectActiveSeason(seasons, s.now()), nil
}

// GetSeason looks a season up by id within a realm.
func (s *SeasonRegistry) GetSeason(ctx context.Context, realmID, id uint64) (*models.Season, error) {
	if realmID == 0 {
		return nil, newValidationError("realm_id", "is required")
	}
	if id == 0 {
		return nil, newValidationError("season_id", "is required")
	}
	seasons, err := s.realmSeasons(ctx, realmID)
	if err != nil {
		return nil, err
	}
	for i := range seasons {
		if seasons[i].ID == id {
			season := seasons[i]
			season.IsActive = season.Contains(s.now())
			return &season, nil
		}
	}
	return nil, &NotFoundError{Resource: "season", ID: id}
}

func (s *SeasonRegistry) CreateSeason(ctx context.Context, realmID uint64, name string, start, end time.Time) (*models.Season, error) {
	if realmID == 0 {
		return nil, newValidationError("realm_id", "is required")
	}
	season := models.Season{
		RealmID:   realmID,
		Name:      normalizeName(name),
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
	}
	if err := validateSeason(&season); err != nil {
		return nil, err
	}
	season.Slug = seasonSlug(season.Name)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkSeasonOverlap(tx, &season); err != nil {
			return err
		}
		return tx.Create(&season).Error
	})
	if err != nil {
		return nil, storeError("create season", "season", realmID, err)
	}

	s.Cache.InvalidateSeasons(ctx, realmID)
	season.IsActive = season.Contains(s.now())
	utils.WithRequest(s.Log, ctx).WithFields(logrus.Fields{
		"realm_id":  realmID,
		"season_id": season.ID,
	}).Info("[SEASON] created")
	return &season, nil
}

// UpdateSeason applies a partial update; validation runs on the merged result.
func (s *SeasonRegistry) UpdateSeason(ctx context.Context, realmID, id uint64, upd SeasonUpdate) (*models.Season, error) {
	if realmID == 0 {
		return nil, newValidationError("realm_id", "is required")
	}
	if id == 0 {
		return nil, newValidationError("season_id", "is required")
	}

	var season models.Season
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND realm_id = ?", id, realmID).First(&season).Error; err != nil {
			return err
		}

		if upd.Name != nil {
			season.Name = normalizeName(*upd.Name)
			season.Slug = seasonSlug(season.Name)
		}
		if upd.StartDate != nil {
			season.StartDate = upd.StartDate.UTC()
		}
		if upd.EndDate != nil {
			season.EndDate = upd.EndDate.UTC()
		}
		if err := validateSeason(&season); err != nil {
			return err
		}
		if err := checkSeasonOverlap(tx, &season); err != nil {
			return err
		}
		return tx.Save(&season).Error
	})
	if err != nil {
		return nil, storeError("update season", "season", id, err)
	}

	s.Cache.InvalidateSeasons(ctx, realmID)
	season.IsActive = season.Contains(s.now())
	utils.WithRequest(s.Log, ctx).WithFields(logrus.Fields{
		"realm_id":  realmID,
		"season_id": id,
	}).Info("[SEASON] updated")
	return &season, nil
}

// realmSeasons reads the realm's seasons through the catalog cache.
func (s *SeasonRegistry) realmSeasons(ctx context.Context, realmID uint64) ([]models.Season, error) {
	if seasons, ok := s.Cache.Seasons(ctx, realmID); ok {
		return seasons, nil
	}
	seasons, err := loadRealmSeasons(s.DB.WithContext(ctx), realmID)
	if err != nil {
		return nil, storeError("list seasons", "realm", realmID, err)
	}
	s.Cache.StoreSeasons(ctx, realmID, seasons)
	return seasons, nil
}

func loadRealmSeasons(db *gorm.DB, realmID uint64) ([]models.Season, error) {
	seasons := []models.Season{}
	err := db.Where("realm_id = ?", realmID).Order("start_date ASC, id ASC").Find(&seasons).Error
	return seasons, err
}

// SelectActiveSeason picks the season whose window contains now. Overlaps are rejected on write,
// but if stored data still has them the most recently created season wins.
func SelectActiveSeason(seasons []models.Season, now time.Time) *models.Season {
	var active *models.Season
	for i := range seasons {
		candidate := &seasons[i]
		if !candidate.Contains(now) {
			continue
		}
		if active == nil || newerSeason(candidate, active) {
			active = candidate
		}
	}
	if active == nil {
		return nil
	}
	season := *active
	season.IsActive = true
	return &season
}

func newerSeason(a, b *models.Season) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func validateSeason(season *models.Season) error {
	if season.Name == "" {
		return newValidationError("name", "must not be blank")
	}
	if season.StartDate.IsZero() {
		return newValidationError("start_date", "is required")
	}
	if season.EndDate.IsZero() {
		return newValidationError("end_date", "is required")
	}
	if !season.StartDate.Before(season.EndDate) {
		return newValidationError("end_date", "must be after start_date")
	}
	return nil
}

func checkSeasonOverlap(tx *gorm.DB, season *models.Season) error {
	existing, err := loadRealmSeasons(tx, season.RealmID)
	if err != nil {
		return err
	}
	for i := range existing {
		other := &existing[i]
		if other.ID == season.ID {
			continue
		}
		if season.Overlaps(other) {
			return newValidationError("start_date", "window overlaps season %d (%s)", other.ID, other.Name)
		}
	}
	return nil
}
