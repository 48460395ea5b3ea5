package callcache

import (
	"testing"
	"time"
)

func TestEntry_Fresh(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		createdAt time.Time
		ttl       time.Duration
		want      bool
	}{
		{
			name:      "just created",
			createdAt: now,
			ttl:       15 * time.Second,
			want:      true,
		},
		{
			name:      "inside window",
			createdAt: now.Add(-10 * time.Second),
			ttl:       15 * time.Second,
			want:      true,
		},
		{
			name:      "exactly at window boundary",
			createdAt: now.Add(-15 * time.Second),
			ttl:       15 * time.Second,
			want:      true,
		},
		{
			name:      "past window",
			createdAt: now.Add(-16 * time.Second),
			ttl:       15 * time.Second,
			want:      false,
		},
		{
			name:      "shrunk ttl expires old entry",
			createdAt: now.Add(-10 * time.Second),
			ttl:       5 * time.Second,
			want:      false,
		},
		{
			name:      "grown ttl revives old entry",
			createdAt: now.Add(-20 * time.Second),
			ttl:       time.Minute,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Entry{CreatedAt: tt.createdAt}
			if got := entry.Fresh(now, tt.ttl); got != tt.want {
				t.Errorf("Fresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_Age(t *testing.T) {
	now := time.Now()
	entry := Entry{CreatedAt: now.Add(-30 * time.Second)}

	if got := entry.Age(now); got != 30*time.Second {
		t.Errorf("Age() = %v, want 30s", got)
	}
}
