package models

// AttributeKind distinguishes the two attribute tables that share one shape.
type AttributeKind string

const (
	KindTag        AttributeKind = "tag"
	KindIngredient AttributeKind = "ingredient"
)

// Attribute is a tag or an ingredient owned by a single user.
type Attribute struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Name   string `json:"name"`
}
