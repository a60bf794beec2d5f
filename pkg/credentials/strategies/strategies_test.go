package strategies

import (
	"testing"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/credentials"
)

func makeCreds(usage ...int64) []*credentials.Credential {
	creds := make([]*credentials.Credential, len(usage))
	for i, u := range usage {
		creds[i] = &credentials.Credential{
			ID:         string(rune('a' + i)),
			Provider:   "openai",
			Model:      "gpt-4",
			UsageCount: u,
		}
	}
	return creds
}

func TestRoundRobinVisitsAllOnce(t *testing.T) {
	creds := makeCreds(0, 0, 0, 0)
	s := NewRoundRobin()

	cursor := 0
	seen := make(map[int]int)
	for i := 0; i < len(creds); i++ {
		index, next, err := s.Pick(creds, cursor)
		if err != nil {
			t.Fatalf("Pick() error = %v", err)
		}
		seen[index]++
		cursor = next
	}

	for i := range creds {
		if seen[i] != 1 {
			t.Errorf("credential %d selected %d times in one cycle, want exactly 1", i, seen[i])
		}
	}
	if cursor != 0 {
		t.Errorf("cursor after full cycle = %d, want 0", cursor)
	}
}

func TestRoundRobinAdvancesOne(t *testing.T) {
	creds := makeCreds(0, 0, 0)
	s := NewRoundRobin()

	index, next, err := s.Pick(creds, 1)
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	if index != 1 {
		t.Errorf("index = %d, want 1 (credential at cursor)", index)
	}
	if next != 2 {
		t.Errorf("next cursor = %d, want 2", next)
	}
}

func TestRoundRobinWrapsOversizedCursor(t *testing.T) {
	// A cursor beyond the eligible slice can occur when cooling-down
	// credentials are filtered out before picking.
	creds := makeCreds(0, 0)
	s := NewRoundRobin()

	index, next, err := s.Pick(creds, 5)
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	if index != 1 {
		t.Errorf("index = %d, want 1", index)
	}
	if next != 0 {
		t.Errorf("next cursor = %d, want 0", next)
	}
}

func TestLeastUsedPicksMinimum(t *testing.T) {
	tests := []struct {
		name  string
		usage []int64
		want  int
	}{
		{name: "minimum in middle", usage: []int64{5, 2, 7}, want: 1},
		{name: "minimum at end", usage: []int64{5, 4, 1}, want: 2},
		{name: "tie picks leftmost", usage: []int64{3, 1, 1, 1}, want: 1},
		{name: "all equal picks first", usage: []int64{2, 2, 2}, want: 0},
		{name: "single credential", usage: []int64{9}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := makeCreds(tt.usage...)
			s := NewLeastUsed()

			index, next, err := s.Pick(creds, 3)
			if err != nil {
				t.Fatalf("Pick() error = %v", err)
			}
			if index != tt.want {
				t.Errorf("index = %d, want %d", index, tt.want)
			}
			if next != 3 {
				t.Errorf("next cursor = %d, want unchanged 3", next)
			}
		})
	}
}

func TestLeastUsedReturnsMinimumProperty(t *testing.T) {
	creds := makeCreds(8, 3, 6, 3, 9)
	s := NewLeastUsed()

	index, _, err := s.Pick(creds, 0)
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}

	min := creds[0].UsageCount
	for _, c := range creds[1:] {
		if c.UsageCount < min {
			min = c.UsageCount
		}
	}
	if creds[index].UsageCount != min {
		t.Errorf("picked UsageCount = %d, want bucket minimum %d", creds[index].UsageCount, min)
	}
}

func TestRandomStaysInBounds(t *testing.T) {
	creds := makeCreds(0, 0, 0)
	s := NewRandom()

	for i := 0; i < 100; i++ {
		index, next, err := s.Pick(creds, 2)
		if err != nil {
			t.Fatalf("Pick() error = %v", err)
		}
		if index < 0 || index >= len(creds) {
			t.Fatalf("index = %d out of bounds [0, %d)", index, len(creds))
		}
		if next != 2 {
			t.Fatalf("next cursor = %d, want unchanged 2", next)
		}
	}
}

func TestForName(t *testing.T) {
	tests := []struct {
		strategy config.RotationStrategy
		wantName string
		wantErr  bool
	}{
		{strategy: config.RotationRoundRobin, wantName: "round-robin"},
		{strategy: config.RotationLeastUsed, wantName: "least-used"},
		{strategy: config.RotationRandom, wantName: "random"},
		{strategy: "weighted", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			s, err := ForName(tt.strategy)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ForName() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ForName() error = %v", err)
			}
			if s.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.wantName)
			}
		})
	}
}
