package usecases

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/rental-broker/internal/application/company"
	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/fleetfile"
)

// FleetLoader reads a stored fleet by provider name.
type FleetLoader interface {
	LoadFleet(ctx context.Context, provider string) ([]rental.FleetEntry, error)
}

// RemoteFactory builds a provider reached over a transport.
type RemoteFactory func(name, baseURL string) rental.Provider

// RegisterProviders builds every provider listed in a manifest and
// registers it in the directory, in manifest order.
type RegisterProviders struct {
	Directory rental.Directory
	Fleets    FleetLoader // nil when no database is configured
	Remote    RemoteFactory
	Company   []company.Option
	Log       *zap.Logger
}

func (u RegisterProviders) Execute(ctx context.Context, m fleetfile.Manifest) ([]string, error) {
	if u.Directory == nil {
		return nil, fmt.Errorf("directory is nil")
	}
	log := u.Log
	if log == nil {
		log = zap.NewNop()
	}

	names := make([]string, 0, len(m.Providers))
	for _, spec := range m.Providers {
		p, err := u.build(ctx, spec, log)
		if err != nil {
			return names, fmt.Errorf("provider %s: %w", spec.Name, err)
		}
		if err := u.Directory.Register(p); err != nil {
			return names, err
		}
		log.Info("provider registered",
			zap.String("provider", spec.Name),
			zap.String("source", string(spec.Source())))
		names = append(names, spec.Name)
	}
	return names, nil
}

func (u RegisterProviders) build(ctx context.Context, spec fleetfile.ProviderSpec, log *zap.Logger) (rental.Provider, error) {
	var (
		entries []rental.FleetEntry
		err     error
	)
	switch spec.Source() {
	case fleetfile.SourceRemote:
		if u.Remote == nil {
			return nil, errors.New("remote providers are not supported here")
		}
		return u.Remote(spec.Name, spec.URL), nil
	case fleetfile.SourcePostgres:
		if u.Fleets == nil {
			return nil, errors.New("postgres fleet requested but DATABASE_URL is not set")
		}
		entries, err = u.Fleets.LoadFleet(ctx, spec.Name)
	case fleetfile.SourceInline:
		entries = spec.Entries()
	default:
		entries, err = fleetfile.Load(spec.Fleet)
	}
	if err != nil {
		return nil, err
	}

	opts := append([]company.Option{company.WithLogger(log)}, u.Company...)
	return company.New(spec.Name, entries, opts...)
}
