package menus

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/menusync/internal/foundation"
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/model"
)

// Callbacks are optional completion handlers. Exactly one of them is
// called, once, on the goroutine running the operation, before the
// returned future resolves.
type Callbacks[T any] struct {
	OnSuccess func(T)
	OnFailure func(error)
}

// Async runs Service operations on their own goroutines and reports the
// outcome through a Future.
type Async struct {
	svc *Service
}

// NewAsync wraps svc.
func NewAsync(svc *Service) *Async {
	return &Async{svc: svc}
}

// SupportsMenuCustomization is synchronous; it has no side effects.
func (a *Async) SupportsMenuCustomization(blog *model.Blog) bool {
	return a.svc.SupportsMenuCustomization(blog)
}

// SyncMenus runs Service.SyncMenus asynchronously.
func (a *Async) SyncMenus(ctx context.Context, blog *model.Blog, cb Callbacks[SyncResult]) *foundation.Future[SyncResult] {
	return dispatch(ctx, cb, func(ctx context.Context) (SyncResult, error) {
		return a.svc.SyncMenus(ctx, blog)
	})
}

// CreateMenu runs Service.CreateMenu asynchronously.
func (a *Async) CreateMenu(ctx context.Context, name string, blog *model.Blog, cb Callbacks[*model.Menu]) *foundation.Future[*model.Menu] {
	return dispatch(ctx, cb, func(ctx context.Context) (*model.Menu, error) {
		return a.svc.CreateMenu(ctx, name, blog)
	})
}

// UpdateMenu runs Service.UpdateMenu asynchronously.
func (a *Async) UpdateMenu(ctx context.Context, menu *model.Menu, blog *model.Blog, cb Callbacks[*model.Menu]) *foundation.Future[*model.Menu] {
	return dispatch(ctx, cb, func(ctx context.Context) (*model.Menu, error) {
		return a.svc.UpdateMenu(ctx, menu, blog)
	})
}

// DeleteMenu runs Service.DeleteMenu asynchronously.
func (a *Async) DeleteMenu(ctx context.Context, menu *model.Menu, blog *model.Blog, cb Callbacks[struct{}]) *foundation.Future[struct{}] {
	return dispatch(ctx, cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.svc.DeleteMenu(ctx, menu, blog)
	})
}

func dispatch[T any](ctx context.Context, cb Callbacks[T], op func(context.Context) (T, error)) *foundation.Future[T] {
	p := foundation.NewPromise[T]()
	go func() {
		value, err := invoke(ctx, op)
		if err != nil {
			if cb.OnFailure != nil {
				cb.OnFailure(err)
			}
			p.Fail(err)
			return
		}
		if cb.OnSuccess != nil {
			cb.OnSuccess(value)
		}
		p.Succeed(value)
	}()
	return p.Future()
}

// invoke turns a panic in op into an internal error so the caller still
// sees exactly one outcome.
func invoke[T any](ctx context.Context, op func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = errors.InternalError("menu operation panicked").
				WithContext("panic", fmt.Sprint(r)).
				Build()
		}
	}()
	return op(ctx)
}
