package motorboard

import (
	"github.com/edaniels/golog"
)

// FailsafeAttempts is how many set-and-read-back rounds are made.  The board
// occasionally reads back stale values straight after a write, so every
// round is made even if an earlier one already agreed.
const FailsafeAttempts = 5

// SetAndVerify calls set then get the given number of times and returns the
// last value read.  The result may disagree with desired; callers decide
// whether that matters.  A failed set or get ends that round early but does
// not stop the remaining rounds; the last error is returned only if no read
// ever succeeded.
func SetAndVerify[T any](attempts int, desired T, set func(T) error, get func() (T, error)) (observed T, ok bool, err error) {
	for i := 0; i < attempts; i++ {
		if serr := set(desired); serr != nil {
			err = serr
			continue
		}
		v, gerr := get()
		if gerr != nil {
			err = gerr
			continue
		}
		observed, ok = v, true
	}
	if ok {
		err = nil
	}
	return
}

// FailsafeResult records a failsafe change: what was asked for and what the
// board last reported.
type FailsafeResult struct {
	Requested bool
	Observed  bool
	Attempts  int
	// Err is set if the board never answered a read-back.
	Err error
}

// Confirmed reports whether the board ended up in the requested state.
func (r FailsafeResult) Confirmed() bool {
	return r.Err == nil && r.Observed == r.Requested
}

type FailsafeController struct {
	board    Board
	log      golog.Logger
	attempts int
	state    bool
	last     FailsafeResult
}

func NewFailsafeController(board Board, log golog.Logger) *FailsafeController {
	return &FailsafeController{
		board:    board,
		log:      log,
		attempts: FailsafeAttempts,
	}
}

// SetFailsafe requests the failsafe state and returns the state the board
// reported after the final attempt.  A disagreement is logged and left in
// Last() for inspection, not returned as an error.
func (f *FailsafeController) SetFailsafe(desired bool) bool {
	observed, ok, err := SetAndVerify(f.attempts, desired, f.board.SetCommsFailsafe, f.board.CommsFailsafe)
	res := FailsafeResult{
		Requested: desired,
		Observed:  observed,
		Attempts:  f.attempts,
		Err:       err,
	}
	if ok {
		f.state = observed
	}
	f.last = res
	if !res.Confirmed() {
		f.log.Warnw("Comms failsafe not confirmed", "requested", desired, "observed", f.state, "error", err)
	} else {
		f.log.Debugw("Comms failsafe set", "enabled", f.state)
	}
	return f.state
}

// Enabled is the board's last reported failsafe state.
func (f *FailsafeController) Enabled() bool {
	return f.state
}

func (f *FailsafeController) Last() FailsafeResult {
	return f.last
}
