package gsheets

import (
	"context"
	"fmt"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/credentials"
	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
)

// Registry reads per-bank queue locations from each tenant's registry
// spreadsheet. The first worksheet lists one row per bank slot.
type Registry struct {
	documents map[string]string // tenant -> registry spreadsheet id
	creds     credentials.Resolver
	layout    queue.RegistryLayout
	services  *serviceCache
}

var _ queue.Registry = (*Registry)(nil)

// NewRegistry creates a registry reader. A nil factory uses JWTServiceFactory.
func NewRegistry(documents map[string]string, creds credentials.Resolver, factory ServiceFactory) *Registry {
	return &Registry{
		documents: documents,
		creds:     creds,
		layout:    queue.DefaultRegistryLayout(),
		services:  newServiceCache(factory),
	}
}

// Lookup implements queue.Registry
func (r *Registry) Lookup(ctx context.Context, tenant string) (map[bank.Bank]queue.Location, error) {
	const op = "registry_lookup"

	documentID, ok := r.documents[tenant]
	if !ok || documentID == "" {
		return nil, fmt.Errorf("no registry document configured for tenant %q", tenant)
	}

	cred, err := r.creds.ResolveRegistry(tenant)
	if err != nil {
		return nil, classify(op, tenant, "", err)
	}
	srv, err := r.services.get(ctx, cred)
	if err != nil {
		return nil, classify(op, tenant, "", err)
	}

	title, err := sheetTitle(ctx, srv, documentID, 0)
	if err != nil {
		return nil, classify(op, tenant, "", err)
	}
	values, err := readValues(ctx, srv, documentID, quoteSheet(title))
	if err != nil {
		return nil, classify(op, tenant, "", err)
	}

	return r.layout.ParseRegistry(values)
}
