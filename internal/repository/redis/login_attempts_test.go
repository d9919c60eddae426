package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestLoginAttemptsWindowState(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewLoginAttemptRepository(client, "login", time.Minute)

	ctx := context.Background()
	now := time.Now().UTC()
	first := now.Add(-30 * time.Second)

	for _, at := range []time.Time{first, now.Add(-10 * time.Second), now} {
		if err := repo.RecordAttempt(ctx, "10.0.0.1", at); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, oldest, err := repo.WindowState(ctx, "10.0.0.1", time.Minute, now)
	if err != nil {
		t.Fatalf("WindowState returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts, got %d", count)
	}
	if !oldest.Equal(first) {
		t.Fatalf("expected oldest %v, got %v", first, oldest)
	}

	if ttl := server.TTL("login:10.0.0.1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected ttl within (0, 1m], got %v", ttl)
	}
}

func TestLoginAttemptsWindowStateDropsExpired(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewLoginAttemptRepository(client, "login", 0)

	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.RecordAttempt(ctx, "10.0.0.1", now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "10.0.0.1", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	count, oldest, err := repo.WindowState(ctx, "10.0.0.1", time.Minute, now)
	if err != nil {
		t.Fatalf("WindowState returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected expired attempt to be trimmed, got count %d", count)
	}
	if !oldest.Equal(now) {
		t.Fatalf("expected oldest %v, got %v", now, oldest)
	}
}

func TestLoginAttemptsWindowStateEmpty(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewLoginAttemptRepository(client, "login", time.Minute)

	count, oldest, err := repo.WindowState(context.Background(), "10.0.0.9", time.Minute, time.Now().UTC())
	if err != nil {
		t.Fatalf("WindowState returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no attempts for unknown key, got %d", count)
	}
	if !oldest.IsZero() {
		t.Fatalf("expected zero oldest time, got %v", oldest)
	}
}
