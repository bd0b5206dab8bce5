package main

import (
	"strings"
	"testing"
)

func TestBuildAddress(t *testing.T) {
	tests := []struct {
		name     string
		port     string
		expected string
	}{
		{"default port", "3001", "127.0.0.1:3001"},
		{"custom port", "8080", "127.0.0.1:8080"},
		{"high port", "65535", "127.0.0.1:65535"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildAddress(tt.port); got != tt.expected {
				t.Errorf("buildAddress(%q) = %q, want %q", tt.port, got, tt.expected)
			}
		})
	}
}

// Scratch images have no /etc/hosts, so "localhost" must never appear.
func TestBuildAddressUsesIPv4(t *testing.T) {
	if address := buildAddress("3001"); strings.Contains(address, "localhost") {
		t.Errorf("buildAddress must use 127.0.0.1, got %q", address)
	}
}
