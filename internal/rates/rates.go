// Package rates provides the default rate schedule and loads operator
// overrides from a TOML file.
package rates

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/vbonduro/movequote/internal/domain"
)

// ErrInvalidRate wraps rate validation failures.
var ErrInvalidRate = errors.New("invalid rate")

// Defaults returns the out-of-the-box rate schedule.
func Defaults() domain.RateSchedule {
	return domain.RateSchedule{
		domain.RateMoverHourly:           75,
		domain.RateVehicleFlat:           50,
		domain.RateMileage:               1,
		domain.RatePackingFee:            200,
		domain.RateItemHandling:          0,
		domain.RateMaterialsCost:         0,
		domain.RateBubbleWrapCostPerFoot: 0.4,
		domain.RateBoxCost:               4,
		domain.RatePaperPadCostPerBox:    23.75,
		domain.RateDishPackCost:          4.3,
	}
}

// LoadFile reads a TOML file of `name = value` pairs.
func LoadFile(path string) (domain.RateSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML rate overrides. Integers, floats and numeric strings
// are accepted. Any other value, or a negative one, reads as zero.
func Parse(data []byte) (domain.RateSchedule, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rates: %w", err)
	}

	out := make(domain.RateSchedule, len(raw))
	for name, v := range raw {
		out[name] = coerce(name, v)
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func coerce(name string, v any) float64 {
	var (
		f  float64
		ok = true
	)
	switch n := v.(type) {
	case int64:
		f = float64(n)
	case float64:
		f = n
	case string:
		f, ok = domain.LookupNumber(n)
	default:
		ok = false
	}
	if ok && domain.NonNegative(f) == f {
		return f
	}
	slog.Warn("malformed rate read as zero", "rate", name, "value", v)
	return 0
}

// Validate rejects unknown rate names and negative values.
func Validate(r domain.RateSchedule) error {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !domain.IsKnownRate(name) {
			return fmt.Errorf("%w: unknown rate %q", ErrInvalidRate, name)
		}
		if v := r[name]; v < 0 || domain.NonNegative(v) != v {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidRate, name)
		}
	}
	return nil
}
