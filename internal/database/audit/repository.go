package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/entities"
)

const defaultPageSize = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Filter narrows an event listing. Zero values match everything.
type Filter struct {
	UserID uint
	Action string
	Status entities.AuditStatus
	Limit  int
	Offset int
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.EventType == "" {
		event.EventType = entities.AuditEventAuth
	}
	return r.db.Create(event).Error
}

// ListEvents retrieves paginated audit events, most recent first, plus the
// total number of matches.
func (r *Repository) ListEvents(f Filter) ([]entities.AuditEvent, int64, error) {
	var events []entities.AuditEvent
	var total int64

	query := r.db.Model(&entities.AuditEvent{})
	if f.UserID > 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// CountFailedSince counts failed attempts of an action from one IP address.
func (r *Repository) CountFailedSince(action, ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entities.AuditEvent{}).
		Where("action = ? AND ip_address = ? AND status = ? AND created_at > ?",
			action, ip, entities.AuditStatusFailed, since).
		Count(&count).Error
	return count, err
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
