package main

import "testing"

func TestRun_RejectsBadArguments(t *testing.T) {
	if code := run([]string{"--no-such-flag"}); code != 2 {
		t.Fatalf("run(unknown flag) = %d, want 2", code)
	}
	if code := run([]string{"extra"}); code != 2 {
		t.Fatalf("run(positional) = %d, want 2", code)
	}
	if code := run([]string{"--help"}); code != 0 {
		t.Fatalf("run(--help) = %d, want 0", code)
	}
}
