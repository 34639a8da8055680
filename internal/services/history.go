package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Conceptual-Machines/tidal-companion/internal/models"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

var (
	// ErrHistoryNotFound is returned when a favorite references a missing entry.
	ErrHistoryNotFound = errors.New("history entry not found")
	// ErrEmptyFavorite is returned when a favorite has no pattern to keep.
	ErrEmptyFavorite = errors.New("favorite needs a pattern or a history id")
)

// HistoryFilter narrows history queries. Zero values match everything.
type HistoryFilter struct {
	Style string
	Type  string
	Limit int
}

func (f HistoryFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultHistoryLimit
	case f.Limit > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return f.Limit
	}
}

// HistoryStore persists finalized generations and favorites.
type HistoryStore interface {
	Record(ctx context.Context, entry *models.HistoryEntry) error
	Recent(ctx context.Context, filter HistoryFilter) ([]models.HistoryEntry, error)
	AddFavorite(ctx context.Context, fav *models.Favorite) error
	Favorites(ctx context.Context, style string) ([]models.Favorite, error)
	// FavoritePatterns feeds retraining.
	FavoritePatterns(ctx context.Context) ([]string, error)
}

// GormHistory is the postgres-backed store.
type GormHistory struct {
	db *gorm.DB
}

func NewGormHistory(db *gorm.DB) *GormHistory {
	return &GormHistory{db: db}
}

func (s *GormHistory) Record(ctx context.Context, entry *models.HistoryEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormHistory) Recent(ctx context.Context, filter HistoryFilter) ([]models.HistoryEntry, error) {
	query := s.db.WithContext(ctx).Model(&models.HistoryEntry{})
	if filter.Style != "" {
		query = query.Where("style = ?", strings.ToLower(filter.Style))
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var entries []models.HistoryEntry
	if err := query.Order("created_at DESC").Limit(filter.limit()).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// AddFavorite stores fav. When it references a history entry the entry is
// flagged and, if fav has no pattern of its own, its pattern is copied.
func (s *GormHistory) AddFavorite(ctx context.Context, fav *models.Favorite) error {
	if fav.Pattern == "" && fav.HistoryID == nil {
		return ErrEmptyFavorite
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if fav.HistoryID != nil {
			var entry models.HistoryEntry
			if err := tx.First(&entry, *fav.HistoryID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrHistoryNotFound, *fav.HistoryID)
				}
				return err
			}
			if fav.Pattern == "" {
				fav.Pattern = entry.Pattern
			}
			if fav.Style == "" {
				fav.Style = entry.Style
			}
			if err := tx.Model(&entry).Update("is_favorite", true).Error; err != nil {
				return err
			}
		}
		return tx.Create(fav).Error
	})
}

func (s *GormHistory) Favorites(ctx context.Context, style string) ([]models.Favorite, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if style != "" {
		query = query.Where("style = ?", strings.ToLower(style))
	}
	var favs []models.Favorite
	if err := query.Find(&favs).Error; err != nil {
		return nil, err
	}
	return favs, nil
}

func (s *GormHistory) FavoritePatterns(ctx context.Context) ([]string, error) {
	var patterns []string
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).Order("id").Pluck("pattern", &patterns).Error
	return patterns, err
}

// MemoryHistory keeps everything in process. It is used when no database
// is configured and in tests.
type MemoryHistory struct {
	mu        sync.RWMutex
	entries   []models.HistoryEntry
	favorites []models.Favorite
	now       func() time.Time
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{now: time.Now}
}

func (s *MemoryHistory) Record(_ context.Context, entry *models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uint(len(s.entries) + 1)
	entry.CreatedAt = s.now()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *MemoryHistory) Recent(_ context.Context, filter HistoryFilter) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	style := strings.ToLower(filter.Style)
	out := []models.HistoryEntry{}
	for i := len(s.entries) - 1; i >= 0 && len(out) < filter.limit(); i-- {
		e := s.entries[i]
		if style != "" && e.Style != style {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *MemoryHistory) AddFavorite(_ context.Context, fav *models.Favorite) error {
	if fav.Pattern == "" && fav.HistoryID == nil {
		return ErrEmptyFavorite
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if fav.HistoryID != nil {
		id := *fav.HistoryID
		if id == 0 || int(id) > len(s.entries) {
			return fmt.Errorf("%w: %d", ErrHistoryNotFound, id)
		}
		entry := &s.entries[id-1]
		entry.IsFavorite = true
		if fav.Pattern == "" {
			fav.Pattern = entry.Pattern
		}
		if fav.Style == "" {
			fav.Style = entry.Style
		}
	}
	fav.ID = uint(len(s.favorites) + 1)
	fav.CreatedAt = s.now()
	fav.UpdatedAt = fav.CreatedAt
	s.favorites = append(s.favorites, *fav)
	return nil
}

func (s *MemoryHistory) Favorites(_ context.Context, style string) ([]models.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	style = strings.ToLower(style)
	out := []models.Favorite{}
	for _, f := range slices.Backward(s.favorites) {
		if style == "" || f.Style == style {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *MemoryHistory) FavoritePatterns(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.favorites))
	for i, f := range s.favorites {
		out[i] = f.Pattern
	}
	return out, nil
}
