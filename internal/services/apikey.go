package services

import (
	"context"
	"errors"
	"time"

	"github.com/jameskabbes/gallery-api/internal/auth"
	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/store"
)

// APIKeyService manages a user's named API keys and their scope grants.
type APIKeyService struct {
	store *store.Store
	cfg   *config.Config
	creds *CredentialService
}

func NewAPIKeyService(s *store.Store, cfg *config.Config, creds *CredentialService) *APIKeyService {
	return &APIKeyService{store: s, cfg: cfg, creds: creds}
}

// Create issues a key named uniquely within the user's keys.
func (s *APIKeyService) Create(ctx context.Context, userID, name string, lifespan time.Duration) (*models.APIKey, error) {
	if _, err := s.store.GetAPIKeyByUserAndName(ctx, userID, name); err == nil {
		return nil, auth.ErrAlreadyExists("API key with this name already exists")
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}
	k, err := s.creds.IssueAPIKey(ctx, userID, name, lifespan)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, auth.ErrAlreadyExists("API key with this name already exists")
		}
		return nil, err
	}
	return k, nil
}

// Get returns the key when it belongs to the user.
func (s *APIKeyService) Get(ctx context.Context, userID, keyID string) (*models.APIKey, error) {
	k, err := s.store.GetAPIKeyByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, auth.ErrNotFound("API key not found")
		}
		return nil, err
	}
	if k.UserID != userID {
		return nil, auth.ErrNotFound("API key not found")
	}
	return k, nil
}

func (s *APIKeyService) List(ctx context.Context, userID string) ([]models.APIKey, error) {
	return s.store.GetAPIKeysByUserID(ctx, userID)
}

// Rename changes the key's name, keeping it unique per user.
func (s *APIKeyService) Rename(ctx context.Context, userID, keyID, name string) (*models.APIKey, error) {
	k, err := s.Get(ctx, userID, keyID)
	if err != nil {
		return nil, err
	}
	if existing, err := s.store.GetAPIKeyByUserAndName(ctx, userID, name); err == nil {
		if existing.ID != k.ID {
			return nil, auth.ErrAlreadyExists("API key with this name already exists")
		}
		return k, nil
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}
	k.Name = name
	if err := s.store.UpdateAPIKey(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

func (s *APIKeyService) Delete(ctx context.Context, userID, keyID string) error {
	k, err := s.Get(ctx, userID, keyID)
	if err != nil {
		return err
	}
	return s.store.DeleteAPIKey(ctx, k.ID)
}

// Encode renders the key in its bearer form for the owner to copy.
func (s *APIKeyService) Encode(ctx context.Context, userID, keyID string) (string, error) {
	k, err := s.Get(ctx, userID, keyID)
	if err != nil {
		return "", err
	}
	return s.creds.Encode(k)
}

// AddScope grants a scope, named as in the scope table, to the key.
func (s *APIKeyService) AddScope(ctx context.Context, userID, keyID, scopeName string) error {
	k, err := s.Get(ctx, userID, keyID)
	if err != nil {
		return err
	}
	scopeID, ok := s.cfg.ScopeNameToID[scopeName]
	if !ok {
		return auth.ErrNotFound("Scope not found")
	}
	if err := s.store.AddAPIKeyScope(ctx, k.ID, scopeID); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return auth.ErrAlreadyExists("Scope already granted to this API key")
		}
		return err
	}
	return nil
}

// RemoveScope revokes a granted scope from the key.
func (s *APIKeyService) RemoveScope(ctx context.Context, userID, keyID, scopeName string) error {
	k, err := s.Get(ctx, userID, keyID)
	if err != nil {
		return err
	}
	scopeID, ok := s.cfg.ScopeNameToID[scopeName]
	if !ok {
		return auth.ErrNotFound("Scope not found")
	}
	if err := s.store.RemoveAPIKeyScope(ctx, k.ID, scopeID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return auth.ErrNotFound("Scope not granted to this API key")
		}
		return err
	}
	return nil
}

// ScopeNames returns the key's granted scopes by name, for responses.
func (s *APIKeyService) ScopeNames(ctx context.Context, keyID string) ([]string, error) {
	ids, err := s.store.GetAPIKeyScopeIDs(ctx, keyID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := s.cfg.ScopeIDToName[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}
