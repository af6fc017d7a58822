package services

import (
	"context"

	"github.com/nixixoo/Notex/internal/client/repositories/kv"
	"github.com/nixixoo/Notex/internal/common"
)

// StoredTokenSource derives the bearer token for outbound requests directly
// from the on-device store, mirroring how the session persists it. While the
// guest flag is set no token is ever supplied, even if a stale credential is
// still present.
type StoredTokenSource struct {
	store kv.Repository
}

func NewStoredTokenSource(store kv.Repository) *StoredTokenSource {
	return &StoredTokenSource{store: store}
}

func (ts *StoredTokenSource) Token(ctx context.Context) (string, bool) {
	guest, err := ts.store.Get(ctx, common.StorageKeyGuestMode)
	if err == nil && string(guest) == "true" {
		return "", false
	}
	token, err := ts.store.Get(ctx, common.StorageKeyAuthToken)
	if err != nil || len(token) == 0 {
		return "", false
	}
	return string(token), true
}
