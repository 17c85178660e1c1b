package dialognode

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/magalia-labs/concierge/agent/contract"
	statex "github.com/magalia-labs/concierge/agent/state"
)

func LoadOrCreateSession(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	workspaceID string,
	customerID string,
	channelType string,
	initialRole statex.RoleType,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sc, err := loadOrCreateSession(ctx, store, in.SessionID, workspaceID, customerID, channelType, initialRole, in.Now)
	if err != nil {
		return nil, err
	}
	in.Session = sc
	return in, nil
}

func loadOrCreateSession(
	ctx context.Context,
	store statex.Store,
	sessionID string,
	workspaceID string,
	customerID string,
	channelType string,
	initialRole statex.RoleType,
	now time.Time,
) (*statex.SessionContext, error) {
	sc, err := store.Load(ctx, sessionID)
	if err == nil {
		return sc, nil
	}
	if !errors.Is(err, statex.ErrStateNotFound) {
		return nil, err
	}

	return statex.NewSessionContextWithRole(sessionID, workspaceID, customerID, channelType, initialRole, now), nil
}
