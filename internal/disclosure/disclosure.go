package disclosure

import (
	"errors"
	"sync"
	"time"

	"console/internal/models"
)

// ErrNotSaved blocks dismissal of a blocking disclosure before the user has
// confirmed the codes are saved. Initial enrollment is the one-time,
// irreversible disclosure event users are most likely to lose; the
// regenerate flow's variant is freely dismissible.
var ErrNotSaved = errors.New("backup codes not confirmed saved")

// ErrDismissed is returned by any access to a disclosure after dismissal.
// The codes are gone: the client holds no further reference and the server
// does not allow a re-fetch.
var ErrDismissed = errors.New("backup codes already dismissed")

// Disclosure is the one-time presentation of a BackupCodeSet. There is
// exactly one per issuing operation; dismissing it is the only way to leave
// it, and after dismissal the codes are unrecoverable client-side.
type Disclosure struct {
	mu sync.Mutex

	subject     string
	generatedAt time.Time
	codes       []string

	blocking  bool
	saved     bool
	dismissed bool
}

// New wraps a freshly issued code set. blocking disclosures (initial
// enrollment) refuse dismissal until MarkSaved is called.
func New(set models.BackupCodeSet, blocking bool) *Disclosure {
	return &Disclosure{
		subject:     set.Subject,
		generatedAt: set.GeneratedAt,
		codes:       append([]string(nil), set.Codes...),
		blocking:    blocking,
	}
}

func (d *Disclosure) Subject() string {
	return d.subject
}

func (d *Disclosure) GeneratedAt() time.Time {
	return d.generatedAt
}

// Codes returns a copy of the codes, or nil after dismissal.
func (d *Disclosure) Codes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dismissed {
		return nil
	}
	return append([]string(nil), d.codes...)
}

// MarkSaved records that the user confirmed (or an export affordance
// completed) saving the codes, unlocking dismissal for blocking disclosures.
func (d *Disclosure) MarkSaved() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.saved = true
}

func (d *Disclosure) Dismissible() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.blocking || d.saved
}

// Dismiss wipes the codes. Irreversible.
func (d *Disclosure) Dismiss() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dismissed {
		return nil
	}
	if d.blocking && !d.saved {
		return ErrNotSaved
	}

	for i := range d.codes {
		d.codes[i] = ""
	}
	d.codes = nil
	d.dismissed = true
	return nil
}

func (d *Disclosure) Dismissed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dismissed
}
