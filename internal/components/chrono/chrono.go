package chrono

import (
	"context"
	"sync"
	"time"
)

type API interface {
	Now() time.Time
	Location() *time.Location
	// Sleep blocks for d or until ctx is done, whichever is first.
	Sleep(ctx context.Context, d time.Duration) error
}

type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl uses the given IANA zone, an empty name means the local zone.
func NewStandardImpl(zone string) (StandardImpl, error) {
	if zone == "" {
		return StandardImpl{location: time.Local}, nil
	}
	location, err := time.LoadLocation(zone)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

func (s StandardImpl) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fake is an API whose clock only moves when slept on.
type Fake struct {
	mutex sync.Mutex
	now   time.Time
	slept []time.Duration
}

func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.now
}

func (f *Fake) Location() *time.Location {
	return f.Now().Location()
}

func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.now = f.now.Add(d)
	f.slept = append(f.slept, d)
	return nil
}

// Slept lists every duration passed to Sleep.
func (f *Fake) Slept() []time.Duration {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]time.Duration(nil), f.slept...)
}
