package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"resido/internal/core/id"
)

type Timestamps struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type testRow struct {
	ID         id.ID  `db:"id"`
	Identifier string `db:"identifier"`
	Timestamps
	Floor    *struct{} `db:"-"`
	Internal string
}

func TestColumns_Embedded(t *testing.T) {
	cols := Columns[testRow]()

	assert.Equal(t, []string{"id", "identifier", "created_at", "updated_at"}, cols)

	// callers may not corrupt the cache
	cols[0] = "oops"
	assert.Equal(t, "id", Columns[testRow]()[0])
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	row := testRow{
		ID:         id.New(),
		Identifier: "A-101",
		Timestamps: Timestamps{CreatedAt: now, UpdatedAt: now},
	}

	m := StructToMap(&row)
	assert.Len(t, m, 4)
	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, "A-101", m["identifier"])
	assert.Equal(t, now, m["created_at"])

	m = StructToMap(row, "id", "created_at")
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "created_at")
	assert.Contains(t, m, "updated_at")

	assert.Nil(t, StructToMap(42))
}
