package notification_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/core/id"
)

func TestDueBillsSQL(t *testing.T) {
	from := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	until := from.AddDate(0, 0, 3)

	sql, args, err := dueBillsSQL(from, until)
	require.NoError(t, err)
	assert.Equal(t, "SELECT b.id, b.resident_id, b.number, b.amount, b.paid_amount, b.currency, b.due_date"+
		" FROM bills AS b WHERE b.status IN ($1,$2) AND b.due_date >= $3 AND b.due_date <= $4"+
		" AND NOT EXISTS (SELECT 1 FROM notifications AS n WHERE n.bill_id = b.id AND n.kind = $5)"+
		" ORDER BY b.due_date ASC, b.id ASC", sql)
	assert.Equal(t, []any{"unpaid", "partial", from, until, "bill_reminder"}, args)
}

func TestListSQL(t *testing.T) {
	resident := id.New()
	now := time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)
	selectAll := "SELECT " + strings.Join(cols, ", ") + " FROM notifications"

	sql, args, err := listSQL(resident, true, now)
	require.NoError(t, err)
	assert.Equal(t, selectAll+" WHERE resident_id = $1 AND scheduled_for <= $2 AND read_at IS NULL"+
		" ORDER BY scheduled_for DESC, id DESC LIMIT 200", sql)
	assert.Equal(t, []any{resident.String(), now}, args)

	sql, _, err = listSQL(resident, false, now)
	require.NoError(t, err)
	assert.NotContains(t, sql, "read_at IS NULL")
}
