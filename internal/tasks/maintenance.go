package tasks

import (
	"context"
	"fmt"

	"github.com/mikestefanello/backlite"
)

// MaintenanceTasks lists the jobs run on every maintenance tick.
func MaintenanceTasks(auditRetentionDays int) []backlite.Task {
	return []backlite.Task{
		CleanupAuditEventsTask{RetentionDays: auditRetentionDays},
		PurgeExpiredTokensTask{},
	}
}

// EnqueueMaintenance adds one run of every maintenance task and returns the
// task ids in MaintenanceTasks order.
func (c *Client) EnqueueMaintenance(ctx context.Context, auditRetentionDays int) ([]string, error) {
	ids, err := c.Add(MaintenanceTasks(auditRetentionDays)...).Ctx(ctx).Save()
	if err != nil {
		return nil, fmt.Errorf("enqueue maintenance: %w", err)
	}
	return ids, nil
}
