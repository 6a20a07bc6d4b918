package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/synclaro/website-api/internal/store"
)

type recordedWrite struct {
	Table  string
	Filter store.Filter
	Body   map[string]any
	Opts   store.WriteOptions
}

// fakeRecords is an in-memory store.Records that captures writes.
type fakeRecords struct {
	mu sync.Mutex

	selectFn func(table string, filter store.Filter) (any, error)
	insertFn func(table string) (any, error)
	patchFn  func(table string) (any, error)

	selects []string
	inserts []recordedWrite
	patches []recordedWrite
}

func (f *fakeRecords) Select(_ context.Context, table string, filter store.Filter, _ int, out any) error {
	f.mu.Lock()
	f.selects = append(f.selects, table)
	f.mu.Unlock()
	if f.selectFn == nil {
		return fill(out, []any{})
	}
	rows, err := f.selectFn(table, filter)
	if err != nil {
		return err
	}
	return fill(out, rows)
}

func (f *fakeRecords) Insert(_ context.Context, table string, row any, opts store.WriteOptions, out any) error {
	f.mu.Lock()
	f.inserts = append(f.inserts, recordedWrite{Table: table, Body: asMap(row), Opts: opts})
	f.mu.Unlock()
	if f.insertFn == nil {
		return nil
	}
	result, err := f.insertFn(table)
	if err != nil {
		return err
	}
	return fill(out, result)
}

func (f *fakeRecords) Patch(_ context.Context, table string, filter store.Filter, patch any, opts store.WriteOptions, out any) error {
	f.mu.Lock()
	f.patches = append(f.patches, recordedWrite{Table: table, Filter: filter, Body: asMap(patch), Opts: opts})
	f.mu.Unlock()
	if f.patchFn == nil {
		return nil
	}
	result, err := f.patchFn(table)
	if err != nil {
		return err
	}
	return fill(out, result)
}

func fill(out, v any) error {
	if out == nil || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func asMap(v any) map[string]any {
	raw, _ := json.Marshal(v)
	m := map[string]any{}
	_ = json.Unmarshal(raw, &m)
	return m
}
