package usecases

import (
	"context"
	"time"

	"github.com/example/rental-broker/internal/domain/rental"
)

type ProbeResult struct {
	Provider string `json:"provider"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// ProbeProviders asks every registered provider for its car types and
// reports which ones answered.
type ProbeProviders struct {
	Directory rental.Directory
	Timeout   time.Duration
}

func (u ProbeProviders) Execute(ctx context.Context) []ProbeResult {
	timeout := u.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	providers := u.Directory.Providers()
	out := make([]ProbeResult, 0, len(providers))
	for _, p := range providers {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		_, err := p.CarTypes(pctx)
		cancel()
		r := ProbeResult{Provider: p.Name(), OK: err == nil}
		if err != nil {
			r.Error = err.Error()
		}
		out = append(out, r)
	}
	return out
}
