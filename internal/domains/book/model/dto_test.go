package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() CreateBookRequest {
	return CreateBookRequest{
		Title:     "The Pragmatic Programmer",
		Author:    "Hunt & Thomas",
		Cover:     CoverHard,
		Inventory: 4,
		DailyFee:  decimal.RequireFromString("1.25"),
	}
}

func TestCreateBookRequest_Validate(t *testing.T) {
	require.NoError(t, validCreateRequest().Validate())

	tests := []struct {
		name   string
		mutate func(*CreateBookRequest)
	}{
		{"empty title", func(r *CreateBookRequest) { r.Title = "" }},
		{"empty author", func(r *CreateBookRequest) { r.Author = "" }},
		{"unknown cover", func(r *CreateBookRequest) { r.Cover = "LEATHER" }},
		{"lowercase cover", func(r *CreateBookRequest) { r.Cover = "hard" }},
		{"negative inventory", func(r *CreateBookRequest) { r.Inventory = -1 }},
		{"negative fee", func(r *CreateBookRequest) { r.DailyFee = decimal.RequireFromString("-0.01") }},
		{"fee with three decimals", func(r *CreateBookRequest) { r.DailyFee = decimal.RequireFromString("1.999") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestCreateBookRequest_ZeroValuesAllowed(t *testing.T) {
	req := validCreateRequest()
	req.Inventory = 0
	req.DailyFee = decimal.Zero
	assert.NoError(t, req.Validate())
}

func TestUpdateBookRequest_Validate(t *testing.T) {
	// All-nil means no fields change; that is valid.
	assert.NoError(t, UpdateBookRequest{}.Validate())

	title := "New Title"
	goodCover := CoverSoft
	badCover := CoverType("SPIRAL")
	goodFee := decimal.RequireFromString("2.00")
	badFee := decimal.RequireFromString("2.005")

	assert.NoError(t, UpdateBookRequest{Title: &title, Cover: &goodCover, DailyFee: &goodFee}.Validate())

	empty := ""
	assert.Error(t, UpdateBookRequest{Title: &empty}.Validate())
	assert.Error(t, UpdateBookRequest{Cover: &badCover}.Validate())
	assert.Error(t, UpdateBookRequest{DailyFee: &badFee}.Validate())
}

func TestCoverType_IsValid(t *testing.T) {
	assert.True(t, CoverHard.IsValid())
	assert.True(t, CoverSoft.IsValid())
	assert.False(t, CoverType("").IsValid())
	assert.False(t, CoverType("PAPERBACK").IsValid())
}

func TestListBooksRequest_Normalize(t *testing.T) {
	req := ListBooksRequest{}
	req.Normalize()
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 20, req.Limit)

	req = ListBooksRequest{Page: -3, Limit: 1000}
	req.Normalize()
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 100, req.Limit)
}
