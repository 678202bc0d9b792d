// Package controller wires user actions on the grid and the form to the store:
// add, edit, save, delete and refresh, with a toast for every outcome.
package controller

import (
	"context"
	"errors"
	"fmt"

	"productdesk/internal/form"
	"productdesk/internal/store"

	"go.uber.org/zap"
)

// Level is the severity of a toast.
type Level string

// Toast levels.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// User-facing messages.
const (
	TitleSuccess = "Success"
	TitleError   = "Error"
	TitleConfirm = "Confirm"

	MsgSaved         = "Product saved successfully"
	MsgSaveFailed    = "Failed to save product"
	MsgInvalidForm   = "Please fill out all required fields"
	MsgDeleted       = "Product deleted successfully"
	MsgDeleteFailed  = "Failed to delete product"
	MsgConfirmDelete = "Are you sure you want to delete this product?"
)

var (
	// ErrInvalidForm is returned by Save when the form does not validate.
	ErrInvalidForm = errors.New("form is invalid")
	// ErrNoForm is returned by Save when no form is open.
	ErrNoForm = errors.New("no form is open")
	// ErrRecordNotFound is returned when the record to edit or delete is not in the store.
	ErrRecordNotFound = errors.New("record not found")
)

// Toast is a short notification shown to the user.
type Toast struct {
	Level   Level
	Title   string
	Message string
}

// Notifier shows toasts.
type Notifier interface {
	Toast(t Toast)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(title, message string) bool
}

// Controller handles the user actions of the product view. It holds at most one open form.
type Controller struct {
	store     *store.Store
	notifier  Notifier
	confirmer Confirmer
	logger    *zap.Logger

	form *form.Form
}

// New creates a Controller over s.
func New(s *store.Store, notifier Notifier, confirmer Confirmer, logger *zap.Logger) *Controller {
	return &Controller{
		store:     s,
		notifier:  notifier,
		confirmer: confirmer,
		logger:    logger.Named("controller"),
	}
}

// Records returns the rows currently shown in the grid.
func (c *Controller) Records() []store.Record {
	return c.store.Records()
}

// Form returns the open form, or nil.
func (c *Controller) Form() *form.Form {
	return c.form
}

// Add opens an empty form not bound to any record.
func (c *Controller) Add() *form.Form {
	c.form = form.New(form.TitleAdd)
	return c.form
}

// Edit opens a form loaded from record.
func (c *Controller) Edit(record store.Record) *form.Form {
	c.form = form.New(form.TitleEdit)
	c.form.LoadRecord(record)
	return c.form
}

// EditByID opens a form for the persisted record with the given id.
func (c *Controller) EditByID(id int64) (*form.Form, error) {
	record := c.store.GetByID(id)
	if record == nil {
		return nil, fmt.Errorf("product %d: %w", id, ErrRecordNotFound)
	}
	return c.Edit(*record), nil
}

// Cancel closes the form without saving.
func (c *Controller) Cancel() {
	c.form = nil
}

// Save commits the open form to the store and syncs. A bound form updates its record,
// an unbound one adds a new record. On success the form closes; on failure it stays open.
func (c *Controller) Save(ctx context.Context) error {
	if c.form == nil {
		return ErrNoForm
	}

	values, err := c.form.Values()
	if err != nil {
		c.logger.Debug("form is invalid", zap.Error(err))
		c.toast(LevelError, MsgInvalidForm)
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	c.logger.Debug("form values", zap.Any("values", values))

	if id := c.form.BoundID(); id != nil {
		record := c.store.GetByID(*id)
		if record == nil {
			c.toast(LevelError, MsgSaveFailed)
			c.reloadQuietly(ctx)
			return fmt.Errorf("product %d: %w", *id, ErrRecordNotFound)
		}
		c.logger.Debug("editing record", zap.Int64("id", *id))
		c.store.Set(record, values)
	} else {
		c.store.Add(store.NewRecord(values))
	}

	batch := c.store.Sync(ctx)
	c.logReload(batch)
	if err := batch.Err(); err != nil {
		c.logger.Debug("sync failed", zap.Any("exceptions", batch.Exceptions()))
		c.toast(LevelError, MsgSaveFailed)
		return err
	}

	c.toast(LevelSuccess, MsgSaved)
	c.form = nil
	return nil
}

// Delete asks for confirmation and then removes record and syncs. It reports whether
// the deletion was attempted; a declined confirmation sends nothing.
func (c *Controller) Delete(ctx context.Context, record store.Record) (bool, error) {
	if !c.confirmer.Confirm(TitleConfirm, MsgConfirmDelete) {
		return false, nil
	}
	if record.ID == nil {
		return false, fmt.Errorf("unsaved product: %w", ErrRecordNotFound)
	}
	target := c.store.GetByID(*record.ID)
	if target == nil {
		return false, fmt.Errorf("product %d: %w", *record.ID, ErrRecordNotFound)
	}

	c.store.Remove(target)
	batch := c.store.Sync(ctx)
	c.logReload(batch)
	if err := batch.Err(); err != nil {
		c.toast(LevelError, MsgDeleteFailed)
		return true, err
	}
	c.toast(LevelSuccess, MsgDeleted)
	return true, nil
}

// DeleteByID deletes the persisted record with the given id.
func (c *Controller) DeleteByID(ctx context.Context, id int64) (bool, error) {
	record := c.store.GetByID(id)
	if record == nil {
		return false, fmt.Errorf("product %d: %w", id, ErrRecordNotFound)
	}
	return c.Delete(ctx, *record)
}

// Refresh reloads the grid from the server.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.store.Reload(ctx)
}

func (c *Controller) toast(level Level, message string) {
	title := TitleSuccess
	if level == LevelError {
		title = TitleError
	}
	c.notifier.Toast(Toast{Level: level, Title: title, Message: message})
}

func (c *Controller) logReload(batch *store.Batch) {
	if batch.ReloadErr != nil {
		c.logger.Warn("reload after sync failed", zap.Error(batch.ReloadErr))
	}
}

func (c *Controller) reloadQuietly(ctx context.Context) {
	if err := c.store.Reload(ctx); err != nil {
		c.logger.Warn("reload failed", zap.Error(err))
	}
}
