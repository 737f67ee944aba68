package documents

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
)

// Entity is the owner of a set of documents. Listings are the only variant.
type Entity interface {
	isEntity()
}

// ListingRef points at a listing's documents.
type ListingRef struct {
	ID uuid.UUID
}

func (ListingRef) isEntity() {}

// entityKey maps an entity onto its persisted (entity_type, entity_id) pair.
func entityKey(e Entity) (enums.EntityType, uuid.UUID, error) {
	switch v := e.(type) {
	case ListingRef:
		if v.ID == uuid.Nil {
			return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
		}
		return enums.EntityTypeListing, v.ID, nil
	case nil:
		return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "entity required")
	}
	return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported entity %T", e))
}

// EntityOf rebuilds the entity a stored document belongs to.
func EntityOf(entityType enums.EntityType, id uuid.UUID) (Entity, error) {
	switch entityType {
	case enums.EntityTypeListing:
		return ListingRef{ID: id}, nil
	}
	return nil, fmt.Errorf("unknown entity type %q", entityType)
}
