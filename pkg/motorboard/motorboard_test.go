package motorboard

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

// flakyBoard reads back a scripted sequence of failsafe values.
type flakyBoard struct {
	DummyBoard
	readBacks []bool
	calls     []string
	readErr   error
}

func (b *flakyBoard) SetCommsFailsafe(enabled bool) error {
	b.calls = append(b.calls, "set")
	return nil
}

func (b *flakyBoard) CommsFailsafe() (bool, error) {
	b.calls = append(b.calls, "get")
	if b.readErr != nil {
		return false, b.readErr
	}
	v := b.readBacks[0]
	b.readBacks = b.readBacks[1:]
	return v, nil
}

func TestSetFailsafeMakesEveryAttempt(t *testing.T) {
	board := &flakyBoard{readBacks: []bool{true, true, true, true, true}}
	fc := NewFailsafeController(board, golog.NewTestLogger(t))

	if got := fc.SetFailsafe(true); !got {
		t.Fatal("Expected failsafe enabled")
	}
	expected := []string{"set", "get", "set", "get", "set", "get", "set", "get", "set", "get"}
	if diff := cmp.Diff(expected, board.calls); diff != "" {
		t.Errorf("Expected 5 set/get pairs even after early success (-want +got):\n%s", diff)
	}
	if !fc.Last().Confirmed() {
		t.Errorf("Expected confirmed result, got %+v", fc.Last())
	}
}

func TestSetFailsafeReturnsLastReading(t *testing.T) {
	board := &flakyBoard{readBacks: []bool{false, false, false, false, true}}
	fc := NewFailsafeController(board, golog.NewTestLogger(t))
	if got := fc.SetFailsafe(true); !got {
		t.Fatal("Last read was true; expected true")
	}

	board.readBacks = []bool{false, false, false, true, true}
	board.calls = nil
	if got := fc.SetFailsafe(false); !got {
		t.Fatal("Board never confirmed disable; expected last read (true)")
	}
	if fc.Last().Confirmed() {
		t.Error("Disagreement should be reported as unconfirmed")
	}
	if !fc.Enabled() {
		t.Error("Stored state should follow the board, not the request")
	}
	if len(board.calls) != 10 {
		t.Errorf("Expected 10 calls, got %d", len(board.calls))
	}
}

func TestSetFailsafeReadErrorsKeepPreviousState(t *testing.T) {
	board := &flakyBoard{readErr: errors.New("i2c: nack")}
	fc := NewFailsafeController(board, golog.NewTestLogger(t))
	if got := fc.SetFailsafe(true); got {
		t.Fatal("No read succeeded; state should stay false")
	}
	if fc.Last().Err == nil || fc.Last().Confirmed() {
		t.Errorf("Expected unconfirmed result with error, got %+v", fc.Last())
	}
}

func TestSetAndVerifyGeneric(t *testing.T) {
	var writes []int
	reads := []int{1, 2, 3}
	v, ok, err := SetAndVerify(3, 7, func(x int) error {
		writes = append(writes, x)
		return nil
	}, func() (int, error) {
		r := reads[0]
		reads = reads[1:]
		return r, nil
	})
	if err != nil || !ok || v != 3 {
		t.Fatalf("Got %v, %v, %v", v, ok, err)
	}
	if diff := cmp.Diff([]int{7, 7, 7}, writes); diff != "" {
		t.Errorf("Unexpected writes (-want +got):\n%s", diff)
	}
}

type fakeProber struct {
	at      map[Address]bool
	scanned bool
	scanErr error
}

func (p *fakeProber) Responds(addr Address) bool {
	return p.at[addr]
}

func (p *fakeProber) ScanBus() ([]Address, error) {
	p.scanned = true
	if p.scanErr != nil {
		return nil, p.scanErr
	}
	var out []Address
	for a := range p.at {
		out = append(out, a)
	}
	return out, nil
}

func TestScanFoundAtExpectedAddress(t *testing.T) {
	p := &fakeProber{at: map[Address]bool{0x15: true}}
	res, err := Scan(p, 0x15)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Found || res.Address != 0x15 {
		t.Errorf("Unexpected result %+v", res)
	}
	if p.scanned {
		t.Error("Should not scan the bus when the board answers directly")
	}
	if res.Err(0x15) != nil {
		t.Error("Found should not produce an error")
	}
}

func TestScanNotFoundAnywhere(t *testing.T) {
	p := &fakeProber{}
	res, err := Scan(p, 0x0B)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != NotFoundAnywhere {
		t.Fatalf("Expected NotFoundAnywhere, got %v", res.Outcome)
	}
	scanErr := res.Err(0x0B)
	if !errors.Is(scanErr, ErrDeviceNotFound) || errors.Is(scanErr, ErrDeviceAtUnexpectedAddress) {
		t.Errorf("Expected only ErrDeviceNotFound to match, got %v", scanErr)
	}
}

func TestScanFoundElsewhere(t *testing.T) {
	p := &fakeProber{at: map[Address]bool{0x10: true}}
	res, err := Scan(p, 0x0B)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != FoundAtDifferentAddress {
		t.Fatalf("Expected FoundAtDifferentAddress, got %v", res.Outcome)
	}
	if diff := cmp.Diff([]Address{0x10}, res.Addresses); diff != "" {
		t.Errorf("Unexpected addresses (-want +got):\n%s", diff)
	}
	if res.Addresses[0].String() != "0x10" {
		t.Errorf("Unexpected address format %q", res.Addresses[0].String())
	}

	_, err = Find(p, 0x0B)
	var se *ScanError
	if !errors.As(err, &se) {
		t.Fatalf("Expected ScanError, got %v", err)
	}
	if !errors.Is(err, ErrDeviceAtUnexpectedAddress) {
		t.Errorf("Expected ErrDeviceAtUnexpectedAddress, got %v", err)
	}
	const msg = "no motor board at address 0x0B, but found at: 0x10"
	if err.Error() != msg {
		t.Errorf("Got message %q, expected %q", err.Error(), msg)
	}
}

func TestScanListsEveryAddress(t *testing.T) {
	p := &fakeProber{at: map[Address]bool{0x16: true, 0x10: true, 0x20: true}}
	_, err := Find(p, 0x15)
	const msg = "no motor board at address 0x15, but found at: 0x10, 0x16, 0x20"
	if err == nil || err.Error() != msg {
		t.Errorf("Got %v, expected %q", err, msg)
	}
}

func TestScanBusError(t *testing.T) {
	p := &fakeProber{scanErr: errors.New("bus busy")}
	if _, err := Scan(p, 0x15); err == nil {
		t.Fatal("Expected bus error to propagate")
	}
}
