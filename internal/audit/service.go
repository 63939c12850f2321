// Package audit records authentication events for later review.
package audit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/database/audit"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/entities"
)

const maxUserAgentLength = 500

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	log  zerolog.Logger
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log.With().Str("component", "audit").Logger()}
}

// Log records an audit event synchronously.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			s.log.Warn().Err(err).Str("action", event.Action).Msg("Failed to log audit event")
		}
	}()
}

// Wait blocks until pending asynchronous writes have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action, description, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: description,
		IPAddress:   ipAddr,
		UserAgent:   truncate(userAgent, maxUserAgentLength),
		Status:      entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// ListEvents retrieves paginated audit events.
func (s *Service) ListEvents(filter audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.ListEvents(filter)
}

// DeleteOldEvents removes events older than the retention period.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
