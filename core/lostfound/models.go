package lostfound

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Item types
const (
	TypeLost  = "lost"
	TypeFound = "found"
)

// OrderingFields maps the accepted ?ordering= fields to their column.
var OrderingFields = map[string]string{
	"createdAt": "created_at",
	"itemName":  "item_name",
	"type":      "type",
	"category":  "category",
}

type Item struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	ItemName    string       `json:"itemName"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	Category    string       `json:"category"`
	Image       string       `json:"image,omitempty"`
	ReportedBy  core.UserRef `json:"reportedBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewItem is submitted as a multipart form, the image being a separate file part.
type NewItem struct {
	Type        string `json:"type" form:"type" validate:"required,oneof=lost found"`
	ItemName    string `json:"itemName" form:"itemName" validate:"required,notblank,max=200"`
	Description string `json:"description" form:"description" validate:"required,notblank"`
	Location    string `json:"location" form:"location" validate:"required,notblank,max=200"`
	Category    string `json:"category" form:"category" validate:"required,notblank,max=100"`
}

func (ni *NewItem) Validate(validate *validator.Validate) error {
	ni.Type = core.CleanString(ni.Type, true /* lower */)
	ni.ItemName = core.CleanString(ni.ItemName)
	ni.Description = core.CleanString(ni.Description)
	ni.Location = core.CleanString(ni.Location)
	ni.Category = core.CleanString(ni.Category)
	return validate.Struct(ni)
}

// UpdateItem defines what may be changed on an existing Item. Empty fields are kept.
type UpdateItem struct {
	Type        string `json:"type" form:"type" validate:"omitempty,oneof=lost found"`
	ItemName    string `json:"itemName" form:"itemName" validate:"max=200"`
	Description string `json:"description" form:"description"`
	Location    string `json:"location" form:"location" validate:"max=200"`
	Category    string `json:"category" form:"category" validate:"max=100"`
}

func (ui *UpdateItem) Validate(validate *validator.Validate) error {
	ui.Type = core.CleanString(ui.Type, true /* lower */)
	ui.ItemName = core.CleanString(ui.ItemName)
	ui.Description = core.CleanString(ui.Description)
	ui.Location = core.CleanString(ui.Location)
	ui.Category = core.CleanString(ui.Category)
	return validate.Struct(ui)
}

func (ui UpdateItem) apply(it *Item) {
	if ui.Type != "" {
		it.Type = ui.Type
	}
	if ui.ItemName != "" {
		it.ItemName = ui.ItemName
	}
	if ui.Description != "" {
		it.Description = ui.Description
	}
	if ui.Location != "" {
		it.Location = ui.Location
	}
	if ui.Category != "" {
		it.Category = ui.Category
	}
}

type QueryFilter struct {
	ReportedBy string `query:"-"`
	Type       string `query:"type"`
	// Search does a case-insensitive match on one of Item.ItemName, Item.Description or Item.Location.
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}
