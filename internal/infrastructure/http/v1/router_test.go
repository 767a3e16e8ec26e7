package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/entity"
	"resido/internal/core/id"
	"resido/internal/domain"
	"resido/internal/domain/billing"
	"resido/internal/domain/filter"
	"resido/internal/domain/property"
	v1 "resido/internal/infrastructure/http/v1"
	"resido/internal/infrastructure/http/v1/handlers"
	"resido/internal/metadata"
	"resido/pkg/logger"
)

type tokens map[string]*appctx.UserContext

func (t tokens) ValidateToken(token string) (*appctx.UserContext, error) {
	if u, ok := t[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid")
}

type pinger struct{ err error }

func (p pinger) Ready(context.Context) error { return p.err }

type propertyStub struct {
	handlers.PropertyService
	params filter.Params
}

func (s *propertyStub) FilterApartments(_ context.Context, params filter.Params) (domain.ListResult[*property.Apartment], error) {
	s.params = params
	a := &property.Apartment{Listing: property.Listing{Base: entity.NewBase(), Identifier: "A-1", Price: decimal.NewFromInt(100)}}
	return domain.NewListResult([]*property.Apartment{a}, 31, filter.Page{Limit: 15}), nil
}

func (s *propertyStub) ListProperties(_ context.Context, params filter.Params) (domain.ListResult[property.Property], error) {
	s.params = params
	items := []property.Property{
		&property.House{Listing: property.Listing{Base: entity.NewBase(), Identifier: "H-1"}},
		&property.Apartment{Listing: property.Listing{Base: entity.NewBase(), Identifier: "A-1"}},
	}
	return domain.NewListResult(items, 2, filter.Page{Limit: 15}), nil
}

func (s *propertyStub) GetApartment(context.Context, id.ID) (*property.Apartment, error) {
	return nil, apperror.NewNotFound("apartment", "x")
}

type billingStub struct {
	handlers.BillingService
	paid billing.PaymentInput
}

func (s *billingStub) Pay(_ context.Context, billID id.ID, in billing.PaymentInput) (*billing.Payment, *billing.Bill, error) {
	s.paid = in
	b := billing.NewBill()
	b.ID = billID
	return &billing.Payment{ID: id.New(), BillID: billID, Amount: in.Amount}, b, nil
}

type fixture struct {
	handler  http.Handler
	property *propertyStub
	billing  *billingStub
}

func newFixture(t *testing.T, dbErr error) fixture {
	t.Helper()

	reg, err := property.NewRegistry(billing.BillSpec())
	require.NoError(t, err)
	meta, err := metadata.FromFilters(reg, nil)
	require.NoError(t, err)

	f := fixture{property: &propertyStub{}, billing: &billingStub{}}
	f.handler = v1.NewRouter(v1.RouterConfig{
		Logger: logger.NewNop(),
		JWTValidator: tokens{
			"admin":    {UserID: id.New().String(), Class: appctx.ClassAdmin},
			"resident": {UserID: id.New().String(), Class: appctx.ClassResident},
		},
		DB:               pinger{err: dbErr},
		PropertyService:  f.property,
		BillingService:   f.billing,
		MetadataRegistry: meta,
	})
	return f
}

func (f fixture) do(method, target, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	w, _ := f.do(http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := f.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	down := newFixture(t, errors.New("connection refused"))
	w, body = down.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", body["status"])
}

func TestListApartments(t *testing.T) {
	f := newFixture(t, nil)

	w, _ := f.do(http.MethodGet, "/api/v1/apartments", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := f.do(http.MethodGet, "/api/v1/apartments?min_price=100&status[]=available&status[]=reserved", "resident", "")
	require.Equal(t, http.StatusOK, w.Code)

	v, ok := f.property.params.Get("min_price")
	require.True(t, ok)
	assert.Equal(t, "100", v.String())
	v, ok = f.property.params.Get("status")
	require.True(t, ok)
	assert.Equal(t, []string{"available", "reserved"}, v.Strings())

	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 31, pagination["totalItems"])
	assert.EqualValues(t, 3, pagination["totalPages"])
	assert.Len(t, body["items"], 1)
}

func TestSearchProperties_JSONBody(t *testing.T) {
	f := newFixture(t, nil)

	w, body := f.do(http.MethodPost, "/api/v1/properties/search?per_page=5", "admin",
		`{"filters":{"price":{"min":100}},"sort":{"field":"price","direction":"asc"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	v, ok := f.property.params.Nested("filters", "price", "min")
	require.True(t, ok)
	assert.Equal(t, "100", v.String())
	v, ok = f.property.params.Nested("sort", "field")
	require.True(t, ok)
	assert.Equal(t, "price", v.String())
	assert.True(t, f.property.params.Filled("per_page"))

	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "house", items[0].(map[string]any)["type"])
	assert.Equal(t, "apartment", items[1].(map[string]any)["type"])
}

func TestSearchProperties_BodyOverridesQuery(t *testing.T) {
	f := newFixture(t, nil)

	w, _ := f.do(http.MethodPost,
		"/api/v1/properties/search?status[]=available&status[]=occupied&filters[price][min]=1", "admin",
		`{"filters":{"price":{"min":100}}}`)
	require.Equal(t, http.StatusOK, w.Code)

	v, ok := f.property.params.Nested("filters", "price", "min")
	require.True(t, ok)
	assert.Equal(t, "100", v.String())

	v, ok = f.property.params.Get("status")
	require.True(t, ok)
	assert.True(t, v.IsList())
	assert.Equal(t, []string{"available", "occupied"}, v.Strings())
	assert.False(t, f.property.params.Filled("status[]"))
}

func TestSearch_MalformedBody(t *testing.T) {
	f := newFixture(t, nil)
	w, body := f.do(http.MethodPost, "/api/v1/properties/search", "admin", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, body["code"])
}

func TestApartmentRoutes(t *testing.T) {
	f := newFixture(t, nil)

	w, body := f.do(http.MethodPost, "/api/v1/apartments", "resident", `{"identifier":"A-9"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, body["code"])

	w, body = f.do(http.MethodGet, "/api/v1/apartments/not-a-uuid", "resident", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, body["code"])

	w, body = f.do(http.MethodGet, "/api/v1/apartments/"+id.New().String(), "resident", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, body["code"])

	w, _ = f.do(http.MethodPost, "/api/v1/apartments", "admin", `{"identifier":"A-9"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_UnknownClass(t *testing.T) {
	f := newFixture(t, nil)
	w, body := f.do(http.MethodPost, "/api/v1/auth/robot/login", "", `{"email":"a@b.c","password":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, body["code"])
}

func TestBillRoutes(t *testing.T) {
	f := newFixture(t, nil)

	w, _ := f.do(http.MethodPost, "/api/v1/bills", "resident", `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	billID := id.New()
	w, body := f.do(http.MethodPost, "/api/v1/bills/"+billID.String()+"/payments", "resident",
		`{"amount":"25.50","method":"cash"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decimal.RequireFromString("25.50").Equal(f.billing.paid.Amount))
	assert.Equal(t, billing.Method("cash"), f.billing.paid.Method)
	assert.Equal(t, billID.String(), body["bill"].(map[string]any)["id"])
}

func TestMetaFilters(t *testing.T) {
	f := newFixture(t, nil)

	w, body := f.do(http.MethodGet, "/api/v1/meta/filters", "resident", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"], 3)

	w, body = f.do(http.MethodGet, "/api/v1/meta/filters/bill", "resident", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "due_date", body["defaultSort"])

	w, _ = f.do(http.MethodGet, "/api/v1/meta/filters/boat", "resident", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
