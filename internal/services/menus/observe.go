package menus

import (
	"context"
	stderrors "errors"
	"time"

	"git.home.luguber.info/inful/menusync/internal/eventstore"
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/logfields"
	"git.home.luguber.info/inful/menusync/internal/metrics"
	"git.home.luguber.info/inful/menusync/internal/model"
	"git.home.luguber.info/inful/menusync/internal/notify"
	"git.home.luguber.info/inful/menusync/internal/observability"
	"git.home.luguber.info/inful/menusync/internal/store"
)

// Observer names reported by IncObserverFailure.
const (
	observerJournal   = "journal"
	observerPublisher = "publisher"
)

// outcome is what the observers see of a successful operation.
type outcome struct {
	event  func() (eventstore.Event, error)
	change notify.ChangeEvent
	synced *store.ReplaceStats
}

func operationContext(ctx context.Context, op string, blog *model.Blog, menuID int64) context.Context {
	ctx = observability.WithOperation(ctx, op)
	if blog != nil {
		ctx = observability.WithBlogID(ctx, blog.ID)
	}
	if menuID > 0 {
		ctx = observability.WithMenuID(ctx, menuID)
	}
	return ctx
}

func changeOutcome(op string, menu *model.Menu) outcome {
	change := eventstore.MenuChange{MenuID: menu.ID, Name: menu.Name, Items: len(menu.Items)}
	o := outcome{change: notify.ChangeEvent{BlogID: menu.BlogID, MenuID: menu.ID}}
	switch op {
	case OpCreateMenu:
		o.change.Type = notify.EventMenuCreated
		o.event = func() (eventstore.Event, error) { return eventstore.NewMenuCreated(menu.BlogID, change) }
	case OpUpdateMenu:
		o.change.Type = notify.EventMenuUpdated
		o.event = func() (eventstore.Event, error) { return eventstore.NewMenuUpdated(menu.BlogID, change) }
	default:
		o.change.Type = notify.EventMenuDeleted
		o.event = func() (eventstore.Event, error) { return eventstore.NewMenuDeleted(menu.BlogID, change) }
	}
	return o
}

// complete feeds metrics, the journal and the publisher. Observer failures
// are logged and never change the operation's result. success is only
// called when err is nil.
func (s *Service) complete(ctx context.Context, op string, blogID, menuID int64, started time.Time, err error, success func(time.Duration) outcome) {
	ctx = context.WithoutCancel(ctx)
	elapsed := s.now().Sub(started)
	s.recorder.ObserveOperationDuration(op, elapsed)

	if err != nil {
		result := metrics.ResultFailure
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			result = metrics.ResultCanceled
		}
		category := errors.GetCategory(err)
		s.recorder.IncOperationResult(op, result, string(category))
		if blogID > 0 {
			s.record(ctx, func() (eventstore.Event, error) {
				return eventstore.NewOperationFailed(blogID, eventstore.Failure{
					Operation:     op,
					MenuID:        menuID,
					Category:      string(category),
					Error:         err.Error(),
					RemoteApplied: RemoteApplied(err),
				})
			})
		}
		return
	}

	s.recorder.IncOperationResult(op, metrics.ResultSuccess, "")
	o := success(elapsed)
	if o.synced != nil {
		s.recorder.SetSyncedMenus(blogID, o.synced.Menus, o.synced.Locations)
	}
	s.record(ctx, o.event)
	s.publish(ctx, o.change)

	observability.DebugContext(ctx, "Menu operation succeeded", logfields.Duration(elapsed))
}

func (s *Service) record(ctx context.Context, build func() (eventstore.Event, error)) {
	if s.journal == nil || build == nil {
		return
	}
	e, err := build()
	if err == nil {
		err = s.journal.Record(ctx, e)
	}
	if err != nil {
		s.recorder.IncObserverFailure(observerJournal)
		observability.WarnContext(ctx, "Failed to record menu operation", logfields.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, change notify.ChangeEvent) {
	if s.publisher == nil {
		return
	}
	change.At = s.now().UTC()
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.recorder.IncObserverFailure(observerPublisher)
		observability.WarnContext(ctx, "Failed to publish menu change", logfields.Error(err))
	}
}
