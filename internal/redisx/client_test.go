package redisx

import (
	"testing"
	"time"
)

func TestNewAppliesTimeout(t *testing.T) {
	c := New("localhost:6379")
	opt := c.Options()
	if opt.ReadTimeout != 2*time.Second {
		t.Fatalf("ReadTimeout = %v, want 2s", opt.ReadTimeout)
	}
	if opt.WriteTimeout != 2*time.Second {
		t.Fatalf("WriteTimeout = %v, want 2s", opt.WriteTimeout)
	}
}
