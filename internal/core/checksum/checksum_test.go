package checksum

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSum(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"hello", "hello", "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDefaultCalculator().Sum(context.Background(), strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Sum() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Sum() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestSum_MaxSize(t *testing.T) {
	calc := NewCalculator(Options{MaxSize: 4, BufferSize: 2})

	if _, err := calc.Sum(context.Background(), strings.NewReader("1234")); err != nil {
		t.Errorf("input at the limit should hash, got %v", err)
	}

	_, err := calc.Sum(context.Background(), strings.NewReader("12345"))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestSum_Cancelled(t *testing.T) {
	calc := NewDefaultCalculator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := calc.Sum(ctx, bytes.NewReader(make([]byte, 1024)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
