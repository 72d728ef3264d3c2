// Package scanner runs the deadline scan: it pulls candidate work items from
// every registered source, applies the overdue predicate, and persists one
// delay notification per newly overdue item.
package scanner

import (
	"context"
	"time"

	"opsboard_backend/internal/clients"
	"opsboard_backend/internal/delaynotice/repository"
	"opsboard_backend/internal/events"
	"opsboard_backend/internal/workitem"
	"opsboard_backend/platform/logger"
	"opsboard_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Trigger values recorded on scan passes.
const (
	TriggerTimer    = "timer"
	TriggerOnDemand = "on_demand"
)

// Fallbacks used when the owner cannot be resolved from the user directory.
// A missing owner never blocks notification creation.
const (
	fallbackOwnerName = "Unknown user"
	fallbackOwnerRole = workitem.RoleUnknown
)

type notificationStore interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Notification, bool, error)
}

type userDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (clients.User, error)
}

// Stats summarizes one scan pass.
type Stats struct {
	Trigger  string        `json:"trigger"`
	Scanned  int           `json:"scanned"`
	Overdue  int           `json:"overdue"`
	Created  int           `json:"created"`
	Duration time.Duration `json:"-"`
}

// Scanner fans out over work item sources and records delay notifications.
type Scanner struct {
	sources   []workitem.Lister
	store     notificationStore
	directory userDirectory
	bus       events.Bus
	loc       *time.Location
	log       *logger.Logger

	now func() time.Time
}

// New creates a scanner over the given sources. The location anchors the
// start-of-today boundary used by the overdue predicate.
func New(sources []workitem.Lister, store notificationStore, directory userDirectory, bus events.Bus, loc *time.Location, log *logger.Logger) *Scanner {
	if loc == nil {
		loc = time.UTC
	}
	return &Scanner{
		sources:   sources,
		store:     store,
		directory: directory,
		bus:       bus,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one scan pass. Sources are listed concurrently; a failing
// source is logged and skipped so the remaining sources still produce
// notifications. The pass itself only fails when persistence fails.
func (s *Scanner) Run(ctx context.Context, trigger string) (Stats, error) {
	started := s.now()
	startOfToday := workitem.StartOfDay(started, s.loc)

	results := make([][]workitem.WorkItem, len(s.sources))
	sourceErrs := make([]error, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			items, err := src.ListCandidates(gctx)
			if err != nil {
				sourceErrs[i] = err
				return nil
			}
			results[i] = items
			return nil
		})
	}
	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()

	stats := Stats{Trigger: trigger}
	for i, src := range s.sources {
		if sourceErrs[i] != nil {
			s.log.Error("scan source failed",
				"source", string(src.Source()),
				"error", sourceErrs[i].Error(),
			)
			continue
		}

		metrics.ItemsScanned.WithLabelValues(string(src.Source())).Add(float64(len(results[i])))
		stats.Scanned += len(results[i])

		for _, item := range results[i] {
			if !item.OverdueAt(startOfToday) {
				continue
			}
			stats.Overdue++
			metrics.OverdueFound.WithLabelValues(string(item.Source)).Inc()

			created, err := s.record(ctx, item)
			if err != nil {
				return stats, err
			}
			if created {
				stats.Created++
				metrics.NotificationsCreated.WithLabelValues(string(item.Source)).Inc()
			}
		}
	}

	stats.Duration = s.now().Sub(started)
	metrics.ObserveScanDuration(trigger, stats.Duration)
	s.log.ScanPass(trigger, stats.Scanned, stats.Overdue, stats.Created, float64(stats.Duration.Milliseconds()))

	return stats, nil
}

// record persists a notification for one overdue item and publishes the
// creation event when the item was not already known.
func (s *Scanner) record(ctx context.Context, item workitem.WorkItem) (bool, error) {
	ownerName, ownerRole := s.resolveOwner(ctx, item)

	notification, created, err := s.store.Create(ctx, repository.CreateParams{
		TaskID:      item.ID,
		SourceTable: item.Source,
		OwnerID:     item.OwnerID,
		OwnerName:   ownerName,
		OwnerRole:   ownerRole,
		Title:       item.Title,
		DueDate:     item.DueDate,
	})
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.DelayNotificationCreated{
			BaseEvent:      events.NewBaseEvent(),
			NotificationID: notification.ID,
			TaskID:         notification.TaskID,
			SourceTable:    string(notification.SourceTable),
			OwnerID:        notification.OwnerID,
			OwnerName:      notification.OwnerName,
			OwnerRole:      notification.OwnerRole,
			Title:          notification.Title,
			DueDate:        notification.DueDate,
		})
	}

	return true, nil
}

// resolveOwner looks up the owner's display name and role. Sources that fix
// the owner role keep it; otherwise the directory role wins. Lookup failures
// degrade to placeholder values.
func (s *Scanner) resolveOwner(ctx context.Context, item workitem.WorkItem) (string, string) {
	name := fallbackOwnerName
	role := item.OwnerRole

	user, err := s.directory.GetUser(ctx, item.OwnerID)
	if err != nil {
		metrics.LookupFailures.WithLabelValues("name").Inc()
		if role == "" {
			metrics.LookupFailures.WithLabelValues("role").Inc()
			role = fallbackOwnerRole
		}
		s.log.Warn("owner lookup failed",
			"owner_id", item.OwnerID.String(),
			"source", string(item.Source),
			"task_id", item.ID,
			"error", err.Error(),
		)
		return name, role
	}

	if user.DisplayName != "" {
		name = user.DisplayName
	}
	if role == "" {
		role = user.Role
		if role == "" {
			role = fallbackOwnerRole
		}
	}
	return name, role
}
