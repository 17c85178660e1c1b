package roles

import (
	"context"
	"fmt"

	contractx "github.com/magalia-labs/concierge/agent/contract"
	llmx "github.com/magalia-labs/concierge/agent/llm"
	promptx "github.com/magalia-labs/concierge/agent/prompt"
	statex "github.com/magalia-labs/concierge/agent/state"
)

type registryImpl struct {
	roles map[statex.RoleType]contractx.Role
}

func (r *registryImpl) Role(role statex.RoleType) (contractx.Role, bool) {
	handler, ok := r.roles[role]
	return handler, ok
}

// NewRegistry builds the restaurant personas, one chat model per role so
// each can run its own model and temperature.
func NewRegistry(ctx context.Context, cfg llmx.Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	receptionistModel, err := cfg.For(statex.RoleReceptionist).New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create receptionist model: %v", contractx.ErrModelInvoke, err)
	}
	reservationsModel, err := cfg.For(statex.RoleReservations).New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create reservations model: %v", contractx.ErrModelInvoke, err)
	}
	takeawayModel, err := cfg.For(statex.RoleTakeaway).New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create takeaway model: %v", contractx.ErrModelInvoke, err)
	}
	paymentModel, err := cfg.For(statex.RolePayment).New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment model: %v", contractx.ErrModelInvoke, err)
	}

	receptionistRole, err := newReceptionist(ctx, receptionistModel, prompts.Receptionist)
	if err != nil {
		return nil, err
	}
	reservationsRole, err := newPersona(ctx, statex.RoleReservations, reservationsModel, prompts.Reservations, reservationsGuard)
	if err != nil {
		return nil, err
	}
	takeawayRole, err := newPersona(ctx, statex.RoleTakeaway, takeawayModel, prompts.Takeaway, takeawayGuard)
	if err != nil {
		return nil, err
	}
	paymentRole, err := newPersona(ctx, statex.RolePayment, paymentModel, prompts.Payment, paymentGuard)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		roles: map[statex.RoleType]contractx.Role{
			statex.RoleReceptionist: receptionistRole,
			statex.RoleReservations: reservationsRole,
			statex.RoleTakeaway:     takeawayRole,
			statex.RolePayment:      paymentRole,
		},
	}, nil
}

// NewAssistantRegistry builds a registry holding only the standalone
// assistant persona, for deployments without the restaurant front desk.
func NewAssistantRegistry(ctx context.Context, cfg llmx.Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	assistantModel, err := cfg.For(statex.RoleAssistant).New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create assistant model: %v", contractx.ErrModelInvoke, err)
	}

	assistantRole, err := NewAssistant(ctx, assistantModel, prompts.Assistant)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		roles: map[statex.RoleType]contractx.Role{
			statex.RoleAssistant: assistantRole,
		},
	}, nil
}
