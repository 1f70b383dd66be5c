// Package remote implements rental.Provider against a provider served by
// another rentalbroker process over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/wire"
)

const defaultUA = "rentalbroker/1.0"

// Provider talks to /v1/providers/{name}/ on a remote base URL.
type Provider struct {
	http *http.Client
	log  *zap.Logger
	name string
	base string
}

type Option func(*Provider)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.http = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.http = &http.Client{Timeout: d} }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

func New(name, baseURL string, opts ...Option) *Provider {
	p := &Provider{
		http: &http.Client{Timeout: 10 * time.Second},
		log:  zap.NewNop(),
		name: name,
		base: strings.TrimRight(baseURL, "/") + "/v1/providers/" + url.PathEscape(name),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) CarTypes(ctx context.Context) ([]rental.CarType, error) {
	var out []rental.CarType
	err := p.do(ctx, http.MethodGet, "/cartypes", nil, nil, &out)
	return out, err
}

func (p *Provider) CarType(ctx context.Context, name string) (rental.CarType, error) {
	var out rental.CarType
	err := p.do(ctx, http.MethodGet, "/cartypes/"+url.PathEscape(name), nil, nil, &out)
	return out, err
}

func (p *Provider) IsAvailable(ctx context.Context, carType string, period rental.Period) (bool, error) {
	q := periodQuery(period)
	q.Set("type", carType)
	var out wire.Availability
	err := p.do(ctx, http.MethodGet, "/available", q, nil, &out)
	return out.Available, err
}

func (p *Provider) AvailableCarTypes(ctx context.Context, period rental.Period) ([]rental.CarType, error) {
	var out []rental.CarType
	err := p.do(ctx, http.MethodGet, "/available", periodQuery(period), nil, &out)
	return out, err
}

func (p *Provider) CreateQuote(ctx context.Context, c rental.Constraints, client string) (rental.Quote, error) {
	req := wire.QuoteRequest{Client: client, CarType: c.CarType, Start: c.Start, End: c.End}
	var out rental.Quote
	err := p.do(ctx, http.MethodPost, "/quotes", nil, req, &out)
	return out, err
}

func (p *Provider) ConfirmQuote(ctx context.Context, q rental.Quote) (rental.Reservation, error) {
	var out rental.Reservation
	err := p.do(ctx, http.MethodPost, "/confirm", nil, q, &out)
	return out, err
}

func (p *Provider) CancelReservation(ctx context.Context, r rental.Reservation) error {
	return p.do(ctx, http.MethodPost, "/cancel", nil, r, nil)
}

func (p *Provider) ReservationsByRenter(ctx context.Context, renter string) ([]rental.Reservation, error) {
	var out []rental.Reservation
	err := p.do(ctx, http.MethodGet, "/reservations", url.Values{"renter": {renter}}, nil, &out)
	return out, err
}

func (p *Provider) NumberOfReservationsForType(ctx context.Context, carType string) (int, error) {
	return p.count(ctx, url.Values{"type": {carType}})
}

func (p *Provider) NumberOfReservationsBy(ctx context.Context, renter string) (int, error) {
	return p.count(ctx, url.Values{"renter": {renter}})
}

func (p *Provider) TotalReservations(ctx context.Context) (int, error) {
	return p.count(ctx, nil)
}

func (p *Provider) count(ctx context.Context, q url.Values) (int, error) {
	var out wire.Count
	err := p.do(ctx, http.MethodGet, "/stats", q, nil, &out)
	return out.Count, err
}

func periodQuery(period rental.Period) url.Values {
	return url.Values{
		"from": {period.Start.Format(wire.TimeLayout)},
		"to":   {period.End.Format(wire.TimeLayout)},
	}
}

// do sends one request. Domain error codes in the response come back as
// their sentinels; anything else is rental.ErrTransport.
func (p *Provider) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := p.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", p.name, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", rental.ErrTransport, p.name, err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("user-agent", defaultUA)
	if in != nil {
		req.Header.Set("content-type", "application/json")
	}

	resp, err := p.http.Do(req)
	if err != nil {
		p.log.Debug("remote call failed", zap.String("provider", p.name), zap.String("url", u), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", rental.ErrTransport, method, u, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", rental.ErrTransport, u, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e wire.Error
		if err := json.Unmarshal(raw, &e); err != nil || e.Code == "" {
			return fmt.Errorf("%w: %s %s: http %d: %s", rental.ErrTransport, method, u, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("%s: %w", p.name, wire.ToError(e, resp.StatusCode))
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", rental.ErrTransport, u, err)
	}
	return nil
}
