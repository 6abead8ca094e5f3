package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_MarshalJSON_FlattensDetails(t *testing.T) {
	o := Order{
		ID:     "o-1",
		Email:  "u@test.com",
		Status: OrderStatusConfirm,
		Details: map[string]any{
			"customerName": "Taro",
			"price":        "20.00",
		},
	}

	data, err := json.Marshal(o)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "o-1", doc["_id"])
	assert.Equal(t, "u@test.com", doc["email"])
	assert.Equal(t, "confirm", doc["status"])
	assert.Equal(t, "Taro", doc["customerName"])
	assert.Equal(t, "20.00", doc["price"])
}

func TestOrder_UnmarshalJSON_SplitsReservedKeys(t *testing.T) {
	var o Order
	err := json.Unmarshal([]byte(`{"email":"u@test.com","service":"Oil change","date":"2026-10-18"}`), &o)
	require.NoError(t, err)

	assert.Equal(t, "u@test.com", o.Email)
	assert.Empty(t, o.Status)
	assert.Equal(t, "Oil change", o.Details["service"])
	assert.NotContains(t, o.Details, "email")
}

func TestOrder_Fields_ReservedDetailsCannotOverrideOwner(t *testing.T) {
	o := Order{
		Email:   "owner@test.com",
		Details: map[string]any{"email": "other@test.com", "_id": "x"},
	}

	doc := o.Fields()
	assert.Equal(t, "owner@test.com", doc["email"])
	assert.NotContains(t, doc, "_id")
	assert.NotContains(t, doc, "status")
}

func TestIdentityClaim_RoundTrip(t *testing.T) {
	var c IdentityClaim
	err := json.Unmarshal([]byte(`{"email":"a@x.com","name":"A","exp":123}`), &c)
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", c.Email)
	assert.Equal(t, map[string]any{"name": "A"}, c.Extra)

	fields := c.Fields()
	assert.Equal(t, "a@x.com", fields["email"])
	assert.Equal(t, "A", fields["name"])
	assert.NotContains(t, fields, "exp")
}

func TestIdentityClaim_NonStringEmailIsIgnored(t *testing.T) {
	c := NewIdentityClaim(map[string]any{"email": 42})
	assert.Empty(t, c.Email)
	assert.Empty(t, c.Extra)
}

func TestService_Summary(t *testing.T) {
	s := &Service{ID: "s1", Details: map[string]any{
		"title": "Engine Oil Change", "price": 20, "img": "oil.jpg", "description": "long",
	}}
	assert.Equal(t, map[string]any{
		"_id": "s1", "title": "Engine Oil Change", "price": 20, "img": "oil.jpg",
	}, s.Summary())
}

func TestService_Summary_OmitsMissingFields(t *testing.T) {
	s := &Service{ID: "s1", Details: map[string]any{"title": "Brake check"}}
	assert.Equal(t, map[string]any{"_id": "s1", "title": "Brake check"}, s.Summary())
}

// 未知のフィールドや型の異なる値もそのまま往復する
func TestService_JSONPassesDocumentThrough(t *testing.T) {
	raw := `{"_id":"s1","title":"Engine Oil Change","price":20,"rating":4.5,"facility":[{"name":"lift"}]}`

	var s Service
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, 4.5, s.Details["rating"])
	assert.NotContains(t, s.Details, "_id")

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestAPIError_Error(t *testing.T) {
	err := NewInvalidIDError("zzz")
	assert.Equal(t, "[INVALID_ID] IDの形式が不正です: zzz", err.Error())
}
