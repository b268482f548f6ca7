package service

import (
	"context"
	"sync"
	"time"

	"rollcall/internal/core/anonymize"
	"rollcall/internal/services/monitor/domain"
)

type fakeSource struct {
	recs  []domain.ActivityRecord
	err   error
	calls int
}

func (f *fakeSource) ActiveUsers(context.Context, time.Duration) ([]domain.ActivityRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

type fakeLocations struct {
	addrs map[int64]string
	errs  map[int64]error
	asked []int64
}

func (f *fakeLocations) LastAddress(_ context.Context, id int64) (string, bool, error) {
	f.asked = append(f.asked, id)
	if err := f.errs[id]; err != nil {
		return "", false, err
	}
	a, ok := f.addrs[id]
	return a, ok, nil
}

type fakeSink struct {
	mu       sync.Mutex
	ids      []anonymize.Token
	identErr error
	prepErr  error
	prepared int
	failOn   map[int]error
	appends  int
	rows     []domain.SnapshotRow
}

func (f *fakeSink) Prepare(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepared++
	return f.prepErr
}

func (f *fakeSink) Identities(context.Context) ([]anonymize.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids, f.identErr
}

func (f *fakeSink) Append(_ context.Context, row domain.SnapshotRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	if err := f.failOn[f.appends]; err != nil {
		return err
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeSink) snapshot() []domain.SnapshotRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.SnapshotRow(nil), f.rows...)
}

type fakeConsole struct {
	snaps []domain.Snapshot
	ch    chan domain.Snapshot
}

func (f *fakeConsole) Render(s domain.Snapshot) error {
	f.snaps = append(f.snaps, s)
	if f.ch != nil {
		f.ch <- s
	}
	return nil
}
