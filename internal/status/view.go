package status

import (
	"context"
	"sync"
	"time"

	"console/internal/identity"
	"console/internal/messaging"
	"console/internal/models"

	"go.uber.org/zap"
)

// Viewer caches the most recent server-reported MFAStatus. The cache is only
// ever replaced by a fresh GET, never mutated by inference, so the rendered
// state cannot diverge from server truth for longer than one refresh.
type Viewer struct {
	mu     sync.RWMutex
	client identity.IClient

	current   models.MFAStatus
	fetchedAt time.Time
	populated bool
}

func NewViewer(client identity.IClient) *Viewer {
	return &Viewer{client: client}
}

// Refresh fetches the current status and replaces the cached copy. Safe for
// concurrent use; reads are idempotent and side-effect free.
func (v *Viewer) Refresh(ctx context.Context) (models.MFAStatus, error) {
	current, err := v.client.GetStatus(ctx)
	if err != nil {
		return models.MFAStatus{}, err
	}

	if !current.Consistent() {
		zap.L().Warn("Server returned inconsistent MFA status",
			zap.Bool("enabled", current.Enabled),
			zap.Bool("has_enrolled_at", current.EnrolledAt != nil))
	}

	v.mu.Lock()
	v.current = current
	v.fetchedAt = time.Now()
	v.populated = true
	v.mu.Unlock()

	return current, nil
}

// Current returns the cached status, and false if no fetch has succeeded yet.
func (v *Viewer) Current() (models.MFAStatus, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current, v.populated
}

// Watch refetches on every status-changed event until ctx is done. Lifecycle
// operations publish after each server-side mutation, which keeps every view
// of the status fresh without the views knowing about the mutations.
func (v *Viewer) Watch(ctx context.Context, subscriber messaging.ISubscriber) {
	messages := subscriber.Subscribe()
	if messages == nil {
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if _, err := v.Refresh(ctx); err != nil {
					zap.L().Warn("Status refresh after change event failed", zap.Error(err))
				}
				msg.Ack()
			}
		}
	}()
}
