package rental

import (
	"fmt"
	"math"
	"time"
)

const day = 24 * time.Hour

// CarType describes a class of car offered by a provider. Values are
// immutable once a fleet is built.
type CarType struct {
	Name           string  `json:"name" yaml:"name"`
	Seats          int     `json:"seats" yaml:"seats"`
	TrunkSpace     float64 `json:"trunkSpace" yaml:"trunkSpace"`
	PricePerDay    float64 `json:"pricePerDay" yaml:"pricePerDay"`
	SmokingAllowed bool    `json:"smokingAllowed" yaml:"smokingAllowed"`
}

// Period is a half-open time range [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewPeriod(start, end time.Time) Period {
	return Period{Start: start, End: end}
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidPeriod)
	}
	if !p.End.After(p.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidPeriod,
			p.End.Format(time.RFC3339), p.Start.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether the two half-open ranges share any instant.
func (p Period) Overlaps(o Period) bool {
	return p.Start.Before(o.End) && o.Start.Before(p.End)
}

// BilledDays is the number of calendar days charged for the period. Any
// started day is billed in full.
func (p Period) BilledDays() int {
	d := p.End.Sub(p.Start)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(float64(d) / float64(day)))
}

func (p Period) String() string {
	return p.Start.Format(time.RFC3339) + "/" + p.End.Format(time.RFC3339)
}

// Price returns the rental price for the period at the given daily rate.
func Price(pricePerDay float64, p Period) float64 {
	return pricePerDay * float64(p.BilledDays())
}

// Constraints is what a client asks a provider to quote.
type Constraints struct {
	Period
	CarType string `json:"carType"`
}

// Quote is a priced, non-binding availability claim. It holds no car and
// may be stale by the time it is confirmed.
type Quote struct {
	Client   string  `json:"client"`
	Period   Period  `json:"period"`
	CarType  string  `json:"carType"`
	Provider string  `json:"provider"`
	Price    float64 `json:"price"`
}

// QuoteKey is the comparable identity of a Quote. Two quotes with the same
// key are the same quote.
type QuoteKey struct {
	Client   string
	Start    int64
	End      int64
	CarType  string
	Provider string
	Price    float64
}

func (q Quote) Key() QuoteKey {
	return QuoteKey{
		Client:   q.Client,
		Start:    q.Period.Start.UnixNano(),
		End:      q.Period.End.UnixNano(),
		CarType:  q.CarType,
		Provider: q.Provider,
		Price:    q.Price,
	}
}

func (q Quote) String() string {
	return fmt.Sprintf("quote{client=%s provider=%s type=%s period=%s price=%.2f}",
		q.Client, q.Provider, q.CarType, q.Period, q.Price)
}

// Reservation is a confirmed quote bound to one car.
type Reservation struct {
	ID    string `json:"id"`
	Quote Quote  `json:"quote"`
	CarID int    `json:"carId"`
}

func (r Reservation) Renter() string   { return r.Quote.Client }
func (r Reservation) Provider() string { return r.Quote.Provider }

func (r Reservation) String() string {
	return fmt.Sprintf("reservation{id=%s car=%d %s}", r.ID, r.CarID, r.Quote)
}

// FleetEntry is one ingested fleet record: Count cars of Type.
type FleetEntry struct {
	Type  CarType
	Count int
}
