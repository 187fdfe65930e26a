package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/attributes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
)

const msgTooLong = "Ensure this field has no more than 255 characters."

// AttributeService lists and creates one kind of attribute (tags or
// ingredients) on behalf of the calling user.
type AttributeService struct {
	conn        dbx.Conn
	repomanager repomanager.RepositoryManager
	kind        models.AttributeKind
}

// NewAttributeService constructs a service for kind.
func NewAttributeService(conn dbx.Conn, m repomanager.RepositoryManager, kind models.AttributeKind) *AttributeService {
	return &AttributeService{conn: conn, repomanager: m, kind: kind}
}

// Kind reports which attribute this service manages.
func (s *AttributeService) Kind() models.AttributeKind {
	return s.kind
}

func (s *AttributeService) repo(db dbx.DBTX) attributes.Repository {
	return attributeRepo(s.repomanager, s.kind, db)
}

func attributeRepo(m repomanager.RepositoryManager, kind models.AttributeKind, db dbx.DBTX) attributes.Repository {
	if kind == models.KindIngredient {
		return m.Ingredients(db)
	}
	return m.Tags(db)
}

// List returns the caller's attributes, optionally only those used by at
// least one of the caller's recipes.
func (s *AttributeService) List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Attribute, error) {
	items, err := s.repo(s.conn.DB()).List(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("error listing %ss: %w", s.kind, err)
	}
	return items, nil
}

// Create stores a new attribute owned by the caller.
func (s *AttributeService) Create(ctx context.Context, userID int64, name string) (*models.Attribute, error) {
	name = strings.TrimSpace(name)

	v := &common.ValidationError{}
	validateName(v, "name", name)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	attr, err := s.repo(s.conn.DB()).Create(ctx, &models.Attribute{UserID: userID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("error creating %s: %w", s.kind, err)
	}
	return attr, nil
}
