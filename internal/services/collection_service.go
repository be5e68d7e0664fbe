package services

import (
	"context"
	"errors"
	"fmt"

	"linkhive/internal/models"
	"linkhive/internal/store"
)

type CollectionService struct {
	collections store.CollectionStore
	links       store.LinkStore
}

func NewCollectionService(collections store.CollectionStore, links store.LinkStore) *CollectionService {
	return &CollectionService{
		collections: collections,
		links:       links,
	}
}

func (cs *CollectionService) CreateCollection(ctx context.Context, userID, name string, description *string, pinned bool) (*models.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name cannot be empty", models.ErrValidation)
	}
	if description != nil && *description == "" {
		description = nil
	}

	c := &models.Collection{
		UserID:      userID,
		Name:        name,
		Description: description,
		IsPinned:    pinned,
	}
	if err := cs.collections.CreateCollection(ctx, c); err != nil {
		return nil, fmt.Errorf("could not create collection: %w", err)
	}
	return c, nil
}

// GetOrCreateCollection finds a collection by name or creates it if it
// doesn't exist. A create losing the race to a concurrent insert falls
// back to the winner's row.
func (cs *CollectionService) GetOrCreateCollection(ctx context.Context, userID, name string, description *string, pinned bool) (*models.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name cannot be empty", models.ErrValidation)
	}

	existing, err := cs.collections.GetCollectionByName(ctx, userID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to get collection '%s': %w", name, err)
	}

	created, err := cs.CreateCollection(ctx, userID, name, description, pinned)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return cs.collections.GetCollectionByName(ctx, userID, name)
		}
		return nil, err
	}
	return created, nil
}

// GetCollection returns the collection when it belongs to the user.
// Other users' collections read as not found.
func (cs *CollectionService) GetCollection(ctx context.Context, userID, id string) (*models.Collection, error) {
	c, err := cs.collections.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (cs *CollectionService) ListCollections(ctx context.Context, userID string, pinned *bool) ([]*models.Collection, error) {
	collections, err := cs.collections.ListCollections(ctx, userID, pinned)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, nil
}

// AddLink files the user's link into the collection.
func (cs *CollectionService) AddLink(ctx context.Context, userID, linkID, collectionID string) error {
	if _, err := cs.ownedLink(ctx, userID, linkID); err != nil {
		return err
	}
	if _, err := cs.GetCollection(ctx, userID, collectionID); err != nil {
		return err
	}
	return cs.links.AssignLinkCollection(ctx, linkID, &collectionID)
}

// RemoveLink unfiles the user's link, returning it to the backlog.
func (cs *CollectionService) RemoveLink(ctx context.Context, userID, linkID string) error {
	if _, err := cs.ownedLink(ctx, userID, linkID); err != nil {
		return err
	}
	return cs.links.AssignLinkCollection(ctx, linkID, nil)
}

func (cs *CollectionService) ListLinks(ctx context.Context, userID, collectionID string, limit, offset int) ([]*models.Link, error) {
	if _, err := cs.GetCollection(ctx, userID, collectionID); err != nil {
		return nil, err
	}
	return cs.links.ListLinksByCollection(ctx, collectionID, limit, offset)
}

func (cs *CollectionService) DeleteCollection(ctx context.Context, userID, id string) error {
	if _, err := cs.GetCollection(ctx, userID, id); err != nil {
		return err
	}
	if err := cs.collections.DeleteCollection(ctx, id); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", id, err)
	}
	return nil
}

func (cs *CollectionService) ownedLink(ctx context.Context, userID, linkID string) (*models.Link, error) {
	link, err := cs.links.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.UserID != userID {
		return nil, store.ErrNotFound
	}
	return link, nil
}
