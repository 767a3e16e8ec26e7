package billing_repo

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/core/id"
	"resido/internal/domain/billing"
	"resido/internal/domain/filter"
)

func selectBills() string {
	cols := make([]string, len(billCols))
	for i, c := range billCols {
		cols[i] = "bills." + c
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM bills"
}

func compileBills(t *testing.T, raw string) filter.Query {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := filter.NewCompiler(filter.MustRegistry(billing.BillSpec())).Compile(filter.KindBill, filter.FromValues(values))
	require.NoError(t, err)
	return q
}

func TestBillColumns(t *testing.T) {
	for _, c := range []string{"id", "number", "resident_id", "amount", "paid_amount", "due_date", "status"} {
		assert.Contains(t, billCols, c)
	}
	assert.Contains(t, paymentCols, "bill_id")
}

func TestBillFindSQL(t *testing.T) {
	residentID := id.New()
	repo := NewBillRepo(nil)

	tests := []struct {
		name     string
		params   string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:   "status, amount and resident",
			params: "status=unpaid,partial&min_amount=10&resident_id=" + residentID.String() + "&sort=amount&direction=asc",
			wantSQL: selectBills() + " WHERE bills.amount >= $1 AND bills.status IN ($2,$3) AND bills.resident_id = $4" +
				" ORDER BY bills.amount ASC, bills.id ASC LIMIT 15",
			// driver.Valuer arguments are rendered through Value()
			wantArgs: []any{decimal.NewFromInt(10).String(), "unpaid", "partial", residentID.String()},
		},
		{
			name:   "due window and resident email",
			params: "max_due=2026-03-31&resident_email=jane@example.com",
			wantSQL: selectBills() + " WHERE bills.due_date <= $1" +
				" AND EXISTS (SELECT 1 FROM residents AS r1 WHERE r1.id = bills.resident_id AND r1.email = $2)" +
				" ORDER BY bills.due_date DESC, bills.id ASC LIMIT 15",
			wantArgs: []any{time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "jane@example.com"},
		},
		{
			name:   "search over number and description",
			params: "search=BILL-2026&per_page=5",
			wantSQL: selectBills() + " WHERE (bills.number ILIKE $1 OR bills.description ILIKE $2)" +
				" ORDER BY bills.due_date DESC, bills.id ASC LIMIT 5",
			wantArgs: []any{"%BILL-2026%", "%BILL-2026%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.findSQL(compileBills(t, tt.params))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBillCountSQL(t *testing.T) {
	sql, args, err := NewBillRepo(nil).countSQL(compileBills(t, "currency=EUR"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM ("+selectBills()+" WHERE bills.currency = $1) AS sub", sql)
	assert.Equal(t, []any{"EUR"}, args)
}
