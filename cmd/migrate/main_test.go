package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/resido?sslmode=disable", "pgx5://u:p@localhost:5432/resido?sslmode=disable"},
		{"postgresql://localhost/resido", "pgx5://localhost/resido"},
		{"pgx5://localhost/resido", "pgx5://localhost/resido"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, databaseURL(tt.in))
	}
}
