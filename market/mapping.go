package market

import (
	"fmt"
	"strconv"
	"strings"
)

// Tenor is a point on a yield curve in months.
type Tenor int

// NoTenor marks a flat curve mapping that carries a single rate.
const NoTenor Tenor = -1

const noTenorToken = "no tenor"

// ParseTenor accepts a month count or "No Tenor".
func ParseTenor(s string) (Tenor, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, noTenorToken) || s == "" {
		return NoTenor, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad tenor %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("bad tenor %q: must be a positive month count", s)
	}
	return Tenor(n), nil
}

// Years converts the tenor to a year fraction. NoTenor is zero.
func (t Tenor) Years() float64 {
	if t == NoTenor {
		return 0
	}
	return float64(t) / 12
}

func (t Tenor) String() string {
	if t == NoTenor {
		return "No Tenor"
	}
	return strconv.Itoa(int(t))
}

// CurveRef maps an instrument to the curve and tenor it is discounted on.
type CurveRef struct {
	Curve string
	Tenor Tenor
}

func (r CurveRef) String() string {
	return r.Curve + "^" + r.Tenor.String()
}

// ParseCurveMapping parses "id^curve^tenor|id^curve^tenor|...".
func ParseCurveMapping(s string) (map[string]CurveRef, error) {
	out := map[string]CurveRef{}
	for _, item := range strings.Split(s, "|") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, ref, err := ParseCurveMappingEntry(item)
		if err != nil {
			return nil, err
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("duplicate curve mapping for instrument %s", id)
		}
		out[id] = ref
	}
	return out, nil
}

// ParseCurveMappingEntry parses a single "id^curve^tenor" entry.
func ParseCurveMappingEntry(s string) (string, CurveRef, error) {
	parts := strings.Split(s, "^")
	if len(parts) != 3 {
		return "", CurveRef{}, fmt.Errorf("bad curve mapping %q (want instrument^curve^tenor)", s)
	}
	id := strings.TrimSpace(parts[0])
	curve := strings.TrimSpace(parts[1])
	if id == "" || curve == "" {
		return "", CurveRef{}, fmt.Errorf("bad curve mapping %q: empty instrument or curve", s)
	}
	tenor, err := ParseTenor(parts[2])
	if err != nil {
		return "", CurveRef{}, fmt.Errorf("curve mapping %q: %w", s, err)
	}
	return id, CurveRef{Curve: curve, Tenor: tenor}, nil
}
