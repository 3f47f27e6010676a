package compliance_test

import (
	"context"
	"sync"
)

type demotion struct {
	userID int64
	owed   int
}

type roleCall struct {
	userID int64
	role   string
}

// fakeNotifier records deliveries and can be primed to fail.
type fakeNotifier struct {
	mu       sync.Mutex
	demoted  []demotion
	restored []int64
	fail     error
}

func (f *fakeNotifier) NotifyDemoted(_ context.Context, userID int64, owed int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.demoted = append(f.demoted, demotion{userID: userID, owed: owed})
	return nil
}

func (f *fakeNotifier) NotifyRestored(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.restored = append(f.restored, userID)
	return nil
}

func (f *fakeNotifier) NotifyReminder(context.Context, int64, int, string) error { return nil }
func (f *fakeNotifier) TestNotification(context.Context) error                   { return nil }

func (f *fakeNotifier) demotions() []demotion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]demotion(nil), f.demoted...)
}

func (f *fakeNotifier) restorations() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.restored...)
}

// fakeRoles records role assignments.
type fakeRoles struct {
	mu    sync.Mutex
	calls []roleCall
}

func (f *fakeRoles) SetRole(_ context.Context, userID int64, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, roleCall{userID: userID, role: role})
	return nil
}

func (f *fakeRoles) assignments() []roleCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]roleCall(nil), f.calls...)
}
