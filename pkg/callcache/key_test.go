package callcache

import (
	"errors"
	"strings"
	"testing"
)

func TestCallKey_String(t *testing.T) {
	key := CallKey{
		Operation: "vsphere.vm_info",
		Args:      []any{"vm-42"},
	}

	got, err := key.String()
	if err != nil {
		t.Fatalf("String() error: %v", err)
	}

	if !strings.HasPrefix(got, "vcall:vsphere.vm_info:") {
		t.Errorf("String() = %q, want vcall:vsphere.vm_info: prefix", got)
	}
}

func TestCallKey_Determinism(t *testing.T) {
	key := CallKey{
		Operation: "vsphere.datastore_info",
		Args: []any{
			map[string]any{
				"host":     "vcenter01.example.com",
				"username": "automation@vsphere.local",
			},
			"datastore1",
		},
	}

	results := make([]string, 10)
	for i := 0; i < 10; i++ {
		s, err := key.String()
		if err != nil {
			t.Fatalf("String() error: %v", err)
		}
		results[i] = s
	}

	first := results[0]
	for i, result := range results {
		if result != first {
			t.Errorf("result[%d] = %v, want %v (not deterministic)", i, result, first)
		}
	}
}

func TestCallKey_ArgumentSensitivity(t *testing.T) {
	tests := []struct {
		name     string
		a        CallKey
		b        CallKey
		wantSame bool
	}{
		{
			name:     "equal args map to same key",
			a:        CallKey{Operation: "vsphere.vm_info", Args: []any{"vm-42", 2}},
			b:        CallKey{Operation: "vsphere.vm_info", Args: []any{"vm-42", 2}},
			wantSame: true,
		},
		{
			name:     "different arg values map to different keys",
			a:        CallKey{Operation: "vsphere.vm_info", Args: []any{"vm-42"}},
			b:        CallKey{Operation: "vsphere.vm_info", Args: []any{"vm-43"}},
			wantSame: false,
		},
		{
			name:     "different operations map to different keys",
			a:        CallKey{Operation: "vsphere.vm_info", Args: []any{"vm-42"}},
			b:        CallKey{Operation: "vsphere.network_info", Args: []any{"vm-42"}},
			wantSame: false,
		},
		{
			name:     "argument order matters",
			a:        CallKey{Operation: "op", Args: []any{"a", "b"}},
			b:        CallKey{Operation: "op", Args: []any{"b", "a"}},
			wantSame: false,
		},
		{
			name: "map iteration order does not matter",
			a: CallKey{Operation: "op", Args: []any{
				map[string]any{"x": 1, "y": 2, "z": 3},
			}},
			b: CallKey{Operation: "op", Args: []any{
				map[string]any{"z": 3, "y": 2, "x": 1},
			}},
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, err := tt.a.String()
			if err != nil {
				t.Fatalf("a.String() error: %v", err)
			}
			kb, err := tt.b.String()
			if err != nil {
				t.Fatalf("b.String() error: %v", err)
			}
			if (ka == kb) != tt.wantSame {
				t.Errorf("keys %q and %q: same=%v, want same=%v", ka, kb, ka == kb, tt.wantSame)
			}
		})
	}
}

func TestCallKey_NotCanonicalizable(t *testing.T) {
	key := CallKey{
		Operation: "vsphere.vm_info",
		Args:      []any{func() {}},
	}

	_, err := key.String()
	if err == nil {
		t.Fatal("String() with a func argument should error")
	}
	if !errors.Is(err, ErrNotCanonicalizable) {
		t.Errorf("error = %v, want ErrNotCanonicalizable", err)
	}
}

func TestCallKey_NestedCanonicalization(t *testing.T) {
	key := CallKey{
		Operation: "op",
		Args: []any{
			[]any{
				map[string]any{"b": []any{1, 2}, "a": nil},
			},
		},
	}

	canonical, err := canonicalize(key.Args)
	if err != nil {
		t.Fatalf("canonicalize error: %v", err)
	}

	want := `[[{"a":null,"b":[1,2]}]]`
	if string(canonical) != want {
		t.Errorf("canonicalize = %s, want %s", canonical, want)
	}
}
