package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"productdesk/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captured struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// newServer answers every request with the given status and body and records what it received.
func newServer(t *testing.T, status int, response string) (*REST, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{Method: r.Method, Path: r.URL.Path}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.Unmarshal(raw, &c.Body))
		}
		requests = append(requests, c)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	p, err := New(Config{URL: server.URL + "/api/products"}, zap.NewNop())
	require.NoError(t, err)
	return p, &requests
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(Config{URL: "not a url"}, zap.NewNop())
	assert.Error(t, err)
}

func TestBuildURL(t *testing.T) {
	p, err := New(Config{URL: "http://localhost:8080/api/products/"}, zap.NewNop())
	require.NoError(t, err)

	persisted := &store.Record{ID: store.Int64(3)}
	phantom := &store.Record{}

	assert.Equal(t, "http://localhost:8080/api/products", p.BuildURL(store.ActionRead, nil))
	assert.Equal(t, "http://localhost:8080/api/products", p.BuildURL(store.ActionCreate, phantom))
	assert.Equal(t, "http://localhost:8080/api/products/3", p.BuildURL(store.ActionUpdate, persisted))
	assert.Equal(t, "http://localhost:8080/api/products/3", p.BuildURL(store.ActionDestroy, persisted))
}

func TestActionMethods(t *testing.T) {
	assert.Equal(t, http.MethodPost, store.ActionCreate.Method())
	assert.Equal(t, http.MethodGet, store.ActionRead.Method())
	assert.Equal(t, http.MethodPut, store.ActionUpdate.Method())
	assert.Equal(t, http.MethodDelete, store.ActionDestroy.Method())
}

func TestRead(t *testing.T) {
	p, requests := newServer(t, http.StatusOK, `{"success":true,"data":[
		{"id":1,"name":"Laptop","description":"fast","price":1200,"quantity":10},
		{"id":2,"name":"Mouse","description":"","price":25.5,"quantity":0}]}`)

	records, err := p.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), *records[0].ID)
	assert.Equal(t, "Laptop", records[0].Name)
	assert.True(t, records[1].Price.Equal(decimal.RequireFromString("25.5")))

	require.Len(t, *requests, 1)
	assert.Equal(t, http.MethodGet, (*requests)[0].Method)
	assert.Equal(t, "/api/products", (*requests)[0].Path)
}

func TestRead_EmptyList(t *testing.T) {
	p, _ := newServer(t, http.StatusOK, `{"success":true,"data":[]}`)

	records, err := p.Read(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestCreate_StripsID(t *testing.T) {
	p, requests := newServer(t, http.StatusCreated,
		`{"success":true,"data":{"id":11,"name":"Widget","description":"","price":9.99,"quantity":5}}`)

	// Even a record carrying an id must not leak it into a create.
	record := store.Record{ID: store.Int64(99), Name: "Widget", Price: decimal.RequireFromString("9.99"), Quantity: 5}
	saved, err := p.Create(context.Background(), record)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, int64(11), *saved.ID)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/products", req.Path)
	assert.NotContains(t, req.Body, "id")
	assert.Equal(t, "Widget", req.Body["name"])
	assert.Equal(t, 9.99, req.Body["price"])
	assert.Equal(t, float64(5), req.Body["quantity"])
}

func TestUpdate_SendsFullRecord(t *testing.T) {
	p, requests := newServer(t, http.StatusOK,
		`{"success":true,"data":{"id":3,"name":"Gadget","description":"d","price":19.99,"quantity":2}}`)

	record := store.Record{ID: store.Int64(3), Name: "Gadget", Description: "d", Price: decimal.RequireFromString("19.99"), Quantity: 2}
	_, err := p.Update(context.Background(), record)
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/products/3", req.Path)
	assert.Equal(t, float64(3), req.Body["id"])
	assert.Equal(t, 19.99, req.Body["price"])
	assert.Equal(t, "d", req.Body["description"])
}

func TestCreateAndUpdate_WithoutData(t *testing.T) {
	p, _ := newServer(t, http.StatusOK, `{"success":true}`)
	record := store.Record{ID: store.Int64(3), Name: "Gadget", Price: decimal.NewFromInt(1)}

	saved, err := p.Create(context.Background(), record)
	require.NoError(t, err)
	assert.Nil(t, saved)

	saved, err = p.Update(context.Background(), record)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestDestroy(t *testing.T) {
	p, requests := newServer(t, http.StatusOK, `{"success":true,"message":"Product deleted successfully"}`)

	err := p.Destroy(context.Background(), store.Record{ID: store.Int64(7)})
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/api/products/7", req.Path)
	assert.Nil(t, req.Body)
}

func TestPhantomUpdateAndDestroyAreRejected(t *testing.T) {
	p, requests := newServer(t, http.StatusOK, `{"success":true}`)

	_, err := p.Update(context.Background(), store.Record{Name: "x"})
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.ErrorIs(t, p.Destroy(context.Background(), store.Record{}), ErrRequestFailed)
	assert.Empty(t, *requests)
}

func TestGet(t *testing.T) {
	p, requests := newServer(t, http.StatusOK,
		`{"success":true,"data":{"id":5,"name":"Lamp","description":"","price":12,"quantity":1}}`)

	record, err := p.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", record.Name)
	assert.Equal(t, "/api/products/5", (*requests)[0].Path)
}

func TestFailures(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		response string
		contains string
	}{
		{"success false", http.StatusOK, `{"success":false,"message":"nope"}`, "nope"},
		{"not found", http.StatusNotFound, `{"success":false,"message":"Product not found"}`, "Product not found"},
		{"server error without envelope", http.StatusInternalServerError, `oops`, "Internal Server Error"},
		{"garbage body", http.StatusOK, `<html>`, "invalid response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := newServer(t, tc.status, tc.response)
			err := p.Destroy(context.Background(), store.Record{ID: store.Int64(7)})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRequestFailed)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	p, err := New(Config{URL: "http://127.0.0.1:1/api/products"}, zap.NewNop())
	require.NoError(t, err)

	_, err = p.Read(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)
}
