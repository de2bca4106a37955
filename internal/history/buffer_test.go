package history

import (
	"fmt"
	"io"
	"reflect"
	"sync"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer("stdout")
	if b == nil {
		t.Fatal("NewBuffer returned nil")
	}
	if b.Name() != "stdout" {
		t.Errorf("Name() = %q, want %q", b.Name(), "stdout")
	}
	if b.Len() != 0 {
		t.Errorf("expected empty buffer, got length %d", b.Len())
	}
}

func TestBuffer_Last(t *testing.T) {
	tests := []struct {
		name    string
		appends []string
		want    string
		wantOK  bool
	}{
		{
			name:    "empty buffer",
			appends: nil,
			want:    "",
			wantOK:  false,
		},
		{
			name:    "single chunk",
			appends: []string{"hello\n"},
			want:    "hello\n",
			wantOK:  true,
		},
		{
			name:    "most recent wins",
			appends: []string{"one\n", "two\n", "three\n"},
			want:    "three\n",
			wantOK:  true,
		},
		{
			name:    "empty chunk is still a chunk",
			appends: []string{"one\n", ""},
			want:    "",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer("stdout")
			for _, c := range tt.appends {
				b.Append(c)
			}
			got, ok := b.Last()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Last() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
			if b.Len() != len(tt.appends) {
				t.Errorf("Len() = %d, want %d", b.Len(), len(tt.appends))
			}
		})
	}
}

func TestBuffer_Since(t *testing.T) {
	b := NewBuffer("stdout")
	for _, c := range []string{"a", "b", "c"} {
		b.Append(c)
	}

	tests := []struct {
		name string
		from int
		want []string
	}{
		{"from start", 0, []string{"a", "b", "c"}},
		{"from middle", 1, []string{"b", "c"}},
		{"at end", 3, nil},
		{"past end", 10, nil},
		{"negative index", -2, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Since(tt.from); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Since(%d) = %q, want %q", tt.from, got, tt.want)
			}
		})
	}
}

func TestBuffer_SnapshotIsCopy(t *testing.T) {
	b := NewBuffer("stdout")
	b.Append("original")

	snap := b.Snapshot()
	snap[0] = "modified"

	if got, _ := b.Last(); got != "original" {
		t.Errorf("modifying a snapshot changed the buffer: Last() = %q", got)
	}
}

func TestBuffer_Write(t *testing.T) {
	b := NewBuffer("stdout")

	n, err := io.WriteString(b, "hello ")
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if n != 6 {
		t.Errorf("Write returned %d, expected 6", n)
	}
	_, _ = b.Write([]byte("world"))

	if b.Len() != 2 {
		t.Errorf("each Write should record one chunk, got %d chunks", b.Len())
	}
	if b.Text() != "hello world" {
		t.Errorf("Text() = %q, want %q", b.Text(), "hello world")
	}
}

func TestBuffer_Subscribe(t *testing.T) {
	b := NewBuffer("stdout")
	b.Append("before")

	notify, length, cancel := b.Subscribe()
	defer cancel()

	if length != 1 {
		t.Errorf("Subscribe length = %d, want 1", length)
	}
	select {
	case <-notify:
		t.Fatal("received a signal before any append")
	default:
	}

	b.Append("after-1")
	b.Append("after-2")

	select {
	case <-notify:
	default:
		t.Fatal("expected a signal after append")
	}
	// Both appends coalesce into the single pending signal.
	select {
	case <-notify:
		t.Fatal("signals should coalesce")
	default:
	}

	if got := b.Since(length); !reflect.DeepEqual(got, []string{"after-1", "after-2"}) {
		t.Errorf("Since(%d) = %q", length, got)
	}
}

func TestBuffer_SubscribeCancel(t *testing.T) {
	b := NewBuffer("stdout")

	_, _, cancel1 := b.Subscribe()
	_, _, cancel2 := b.Subscribe()
	if b.Subscribers() != 2 {
		t.Fatalf("Subscribers() = %d, want 2", b.Subscribers())
	}

	cancel1()
	cancel1()
	if b.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d after cancel, want 1", b.Subscribers())
	}

	cancel2()
	if b.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after cancel, want 0", b.Subscribers())
	}

	// Appending with no subscribers must not block.
	b.Append("x")
}

func TestBuffer_ConcurrentAccess(t *testing.T) {
	b := NewBuffer("stdout")

	const writes = 1000
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			b.Append(fmt.Sprintf("chunk-%d", i))
		}
	}()

	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			notify, _, cancel := b.Subscribe()
			defer cancel()
			for i := 0; i < 100; i++ {
				select {
				case <-notify:
				default:
				}
				_ = b.Len()
				_, _ = b.Last()
				_ = b.Since(b.Len() / 2)
			}
		}()
	}

	wg.Wait()

	snap := b.Snapshot()
	if len(snap) != writes {
		t.Fatalf("expected %d chunks, got %d", writes, len(snap))
	}
	for i, c := range snap {
		if want := fmt.Sprintf("chunk-%d", i); c != want {
			t.Fatalf("chunk %d = %q, want %q (arrival order not preserved)", i, c, want)
		}
	}
}
