package motorboard

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

type ScanOutcome int

const (
	Found ScanOutcome = iota
	NotFoundAnywhere
	FoundAtDifferentAddress
)

func (o ScanOutcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFoundAnywhere:
		return "not-found-anywhere"
	case FoundAtDifferentAddress:
		return "found-at-different-address"
	}
	return fmt.Sprintf("unknown(%d)", int(o))
}

type ScanResult struct {
	Outcome ScanOutcome
	// Address is set when Outcome is Found.
	Address Address
	// Addresses lists every board found elsewhere, sorted.
	Addresses []Address
}

var (
	ErrDeviceNotFound            = errors.New("no motor board found on the bus")
	ErrDeviceAtUnexpectedAddress = errors.New("motor board not at configured address")
)

// ScanError explains a failed scan.  It matches ErrDeviceNotFound or
// ErrDeviceAtUnexpectedAddress under errors.Is.
type ScanError struct {
	Expected Address
	Found    []Address
}

func (e *ScanError) Error() string {
	if len(e.Found) == 0 {
		return fmt.Sprintf("no motor board found at %v or anywhere else on the bus", e.Expected)
	}
	addrs := make([]string, len(e.Found))
	for i, a := range e.Found {
		addrs[i] = a.String()
	}
	return fmt.Sprintf("no motor board at address %v, but found at: %s", e.Expected, strings.Join(addrs, ", "))
}

func (e *ScanError) Is(target error) bool {
	if len(e.Found) == 0 {
		return target == ErrDeviceNotFound
	}
	return target == ErrDeviceAtUnexpectedAddress
}

// Err returns nil for Found and a *ScanError otherwise.
func (r ScanResult) Err(expected Address) error {
	if r.Outcome == Found {
		return nil
	}
	return &ScanError{Expected: expected, Found: r.Addresses}
}

// Scan looks for the board at expected, falling back to a full bus scan so
// that a misconfigured address can be reported with where the board is.
func Scan(p Prober, expected Address) (ScanResult, error) {
	if p.Responds(expected) {
		return ScanResult{Outcome: Found, Address: expected}, nil
	}
	found, err := p.ScanBus()
	if err != nil {
		return ScanResult{}, errors.Wrap(err, "bus scan failed")
	}
	found = slices.Clone(found)
	slices.Sort(found)
	found = slices.Compact(found)
	if slices.Contains(found, expected) {
		// Answered the scan but not the direct probe; treat as present.
		return ScanResult{Outcome: Found, Address: expected}, nil
	}
	if len(found) == 0 {
		return ScanResult{Outcome: NotFoundAnywhere}, nil
	}
	return ScanResult{Outcome: FoundAtDifferentAddress, Addresses: found}, nil
}

// Find is Scan for callers that only care whether the board is where it
// was configured to be.
func Find(p Prober, expected Address) (Address, error) {
	res, err := Scan(p, expected)
	if err != nil {
		return 0, err
	}
	if err := res.Err(expected); err != nil {
		return 0, err
	}
	return res.Address, nil
}
