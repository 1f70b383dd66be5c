// Package fleetfile reads fleet descriptions from disk: the per-provider
// CSV fleet format and the YAML manifest that lists providers.
package fleetfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/example/rental-broker/internal/domain/rental"
)

// ErrMalformed is returned for records that do not follow the fleet format.
var ErrMalformed = errors.New("malformed fleet record")

const fieldsPerRecord = 6

// Parse reads fleet records of the form
//
//	name,seats,trunkSpace,pricePerDay,smokingAllowed,count
//
// Lines starting with '#' and blank lines are skipped.
func Parse(r io.Reader) ([]rental.FleetEntry, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = fieldsPerRecord
	cr.TrimLeadingSpace = true

	var out []rental.FleetEntry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, pe.Line, pe.Err)
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Load parses the fleet file at path.
func Load(path string) ([]rental.FleetEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

func parseRecord(rec []string) (rental.FleetEntry, error) {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	if rec[0] == "" {
		return rental.FleetEntry{}, errors.New("empty car type name")
	}
	seats, err := strconv.Atoi(rec[1])
	if err != nil {
		return rental.FleetEntry{}, fmt.Errorf("seats %q: %w", rec[1], err)
	}
	trunk, err := strconv.ParseFloat(rec[2], 64)
	if err != nil {
		return rental.FleetEntry{}, fmt.Errorf("trunk space %q: %w", rec[2], err)
	}
	price, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return rental.FleetEntry{}, fmt.Errorf("price %q: %w", rec[3], err)
	}
	smoking, err := strconv.ParseBool(rec[4])
	if err != nil {
		return rental.FleetEntry{}, fmt.Errorf("smoking allowed %q: %w", rec[4], err)
	}
	count, err := strconv.Atoi(rec[5])
	if err != nil {
		return rental.FleetEntry{}, fmt.Errorf("count %q: %w", rec[5], err)
	}
	if count < 0 {
		return rental.FleetEntry{}, fmt.Errorf("negative count %d", count)
	}
	return rental.FleetEntry{
		Type: rental.CarType{
			Name:           rec[0],
			Seats:          seats,
			TrunkSpace:     trunk,
			PricePerDay:    price,
			SmokingAllowed: smoking,
		},
		Count: count,
	}, nil
}
