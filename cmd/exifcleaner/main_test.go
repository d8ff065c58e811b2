package main

import (
	"os"
	"slices"
	"syscall"
	"testing"
)

func TestSignals(t *testing.T) {
	tests := []struct {
		name   string
		signal os.Signal
		want   bool
	}{
		{"interrupt", os.Interrupt, true},
		{"terminate", syscall.SIGTERM, true},
		{"kill", os.Kill, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slices.Contains(signals, tt.signal); got != tt.want {
				t.Errorf("handles %v = %v, want %v", tt.signal, got, tt.want)
			}
		})
	}
}
