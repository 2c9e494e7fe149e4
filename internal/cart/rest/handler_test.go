package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GauravMishra537/Kisaan-Dost/internal/account"
	"github.com/GauravMishra537/Kisaan-Dost/internal/cart"
	"github.com/GauravMishra537/Kisaan-Dost/internal/middleware"
	"github.com/GauravMishra537/Kisaan-Dost/internal/product"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockCartService is a mock implementation of the CartService interface
type mockCartService struct {
	entries []cart.EntryDto
	err     error
}

func (m *mockCartService) Get(_ context.Context, _ primitive.ObjectID) ([]cart.EntryDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func (m *mockCartService) Add(_ context.Context, _, _ primitive.ObjectID, _ int32) ([]cart.EntryDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func (m *mockCartService) Remove(_ context.Context, _, _ primitive.ObjectID) ([]cart.EntryDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func newTestHandler(svc cart.CartService) *Handler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewHandler(svc, logger)
}

func withCaller(req *http.Request, caller *account.Account) *http.Request {
	return req.WithContext(middleware.WithAccount(req.Context(), caller))
}

func testBuyer() *account.Account {
	return &account.Account{ID: primitive.NewObjectID(), Name: "Meera", Role: account.RoleBuyer}
}

func Test_CartAPI_Get(t *testing.T) {
	productID := primitive.NewObjectID()
	entries := []cart.EntryDto{
		{
			ProductID: productID.Hex(),
			Qty:       3,
			Product:   &product.Product{ID: productID, Name: "Potato", Price: 20, Stock: 10},
		},
	}

	h := newTestHandler(&mockCartService{entries: entries})
	req := withCaller(httptest.NewRequest(http.MethodGet, "/api/cart", nil), testBuyer())
	rr := httptest.NewRecorder()

	h.Get(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Cart []cart.EntryDto `json:"cart"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Cart, 1)
	assert.Equal(t, int32(3), resp.Cart[0].Qty)
}

func Test_CartAPI_Add(t *testing.T) {
	productID := primitive.NewObjectID()
	entries := []cart.EntryDto{{ProductID: productID.Hex(), Qty: 1}}

	testCases := []struct {
		name          string
		mockService   mockCartService
		body          string
		expectedCode  int
		expectedError string
	}{
		{
			name:         "Success - product added",
			mockService:  mockCartService{entries: entries},
			body:         fmt.Sprintf(`{"productId":%q,"qty":2}`, productID.Hex()),
			expectedCode: http.StatusOK,
		},
		{
			name:         "Success - qty defaults to one",
			mockService:  mockCartService{entries: entries},
			body:         fmt.Sprintf(`{"productId":%q}`, productID.Hex()),
			expectedCode: http.StatusOK,
		},
		{
			name:          "Error - malformed product id",
			mockService:   mockCartService{},
			body:          `{"productId":"123-invalid-id"}`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid product ID",
		},
		{
			name:          "Error - negative quantity",
			mockService:   mockCartService{err: cart.ErrInvalidQuantity},
			body:          fmt.Sprintf(`{"productId":%q,"qty":-2}`, productID.Hex()),
			expectedCode:  http.StatusBadRequest,
			expectedError: "Quantity must be at least 1",
		},
		{
			name:          "Error - unknown product",
			mockService:   mockCartService{err: product.ErrProductNotFound},
			body:          fmt.Sprintf(`{"productId":%q,"qty":1}`, productID.Hex()),
			expectedCode:  http.StatusNotFound,
			expectedError: "Product not found",
		},
		{
			name:          "Error - not enough stock",
			mockService:   mockCartService{err: fmt.Errorf("only 5kg available for Potato: %w", cart.ErrInsufficientStock)},
			body:          fmt.Sprintf(`{"productId":%q,"qty":9}`, productID.Hex()),
			expectedCode:  http.StatusBadRequest,
			expectedError: "only 5kg available for Potato: insufficient stock",
		},
		{
			name:         "Error - invalid body",
			mockService:  mockCartService{},
			body:         `{not json`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&tc.mockService)
			req := withCaller(httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(tc.body)), testBuyer())
			rr := httptest.NewRecorder()

			h.Add(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedError != "" {
				var resp struct {
					Error string `json:"error"`
				}
				assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tc.expectedError, resp.Error)
			}
		})
	}
}

func Test_CartAPI_Remove(t *testing.T) {
	productID := primitive.NewObjectID()

	t.Run("removes the product", func(t *testing.T) {
		h := newTestHandler(&mockCartService{entries: []cart.EntryDto{}})
		req := withCaller(httptest.NewRequest(http.MethodDelete, "/api/cart/"+productID.Hex(), nil), testBuyer())
		req.SetPathValue("id", productID.Hex())
		rr := httptest.NewRecorder()

		h.Remove(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"cart":[]}`, rr.Body.String())
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		h := newTestHandler(&mockCartService{})
		req := withCaller(httptest.NewRequest(http.MethodDelete, "/api/cart/123-invalid-id", nil), testBuyer())
		req.SetPathValue("id", "123-invalid-id")
		rr := httptest.NewRecorder()

		h.Remove(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
