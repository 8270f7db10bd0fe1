package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesTokens(t *testing.T) {
	l := New()

	if !l.Allow("client", 2, 0) {
		t.Fatal("first request should pass")
	}
	if !l.Allow("client", 2, 0) {
		t.Fatal("second request should pass")
	}
	if l.Allow("client", 2, 0) {
		t.Fatal("third request should be rejected with an empty bucket")
	}
}

func TestAllowRefills(t *testing.T) {
	l := New()

	if !l.Allow("client", 1, 1000) {
		t.Fatal("first request should pass")
	}
	if l.Allow("client", 1, 1000) {
		t.Fatal("bucket should be empty immediately after")
	}

	time.Sleep(10 * time.Millisecond)
	if !l.Allow("client", 1, 1000) {
		t.Fatal("bucket should have refilled")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()

	if !l.Allow("a", 1, 0) {
		t.Fatal("key a should pass")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("key b should have its own bucket")
	}
	if l.Allow("a", 1, 0) {
		t.Fatal("key a should be exhausted")
	}
}

func TestSweepEvictsIdleBuckets(t *testing.T) {
	l := New()

	l.Allow("stale", 1, 0)
	l.m["stale"].last = time.Now().Add(-2 * idleEviction)
	l.lastSweep = time.Now().Add(-2 * idleEviction)

	l.Allow("fresh", 1, 0)

	if _, ok := l.m["stale"]; ok {
		t.Fatal("idle bucket should have been evicted")
	}
	if _, ok := l.m["fresh"]; !ok {
		t.Fatal("active bucket should survive the sweep")
	}
}
