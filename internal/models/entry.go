package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coordinates is a latitude/longitude pair. Both are always set together;
// a partially populated pair never exists.
type Coordinates struct {
	Latitude  float64 `json:"latitude"  bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Entry is a single journal entry stored in MongoDB. Author holds a plain
// string copy of the owning user's id so the list-by-author filter compares
// strings against strings, nothing structured.
type Entry struct {
	ID           primitive.ObjectID `json:"id"            bson:"_id,omitempty"`
	Headline     string             `json:"headline"      bson:"headline"`
	JournalText  string             `json:"journalText"   bson:"journal_text"`
	Photo        string             `json:"photo"         bson:"photo"`
	LocationName string             `json:"locationName"  bson:"location_name"`
	Coordinates  Coordinates        `json:"coordinates"   bson:"coordinates"`
	Author       string             `json:"author"        bson:"author"`
	CreatedAt    time.Time          `json:"createdAt"     bson:"created_at"`
}

// CreateEntryRequest is the JSON body for POST /api/entries.
type CreateEntryRequest struct {
	Headline     string `json:"headline" validate:"required,min=5"`
	JournalText  string `json:"journalText" validate:"required"`
	LocationName string `json:"locationName" validate:"required"`
	Author       string `json:"author" validate:"required"`
}

// UpdateEntryRequest is the JSON body for PATCH /api/entries/{id}.
type UpdateEntryRequest struct {
	Headline    string `json:"headline" validate:"required,min=5"`
	JournalText string `json:"journalText" validate:"required"`
}
