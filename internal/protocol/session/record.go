package session

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"axolotl/internal/domain/types"
)

// MaxArchivedStates caps how many superseded states a record keeps.
const MaxArchivedStates = 40

// Record is the persisted unit for one peer device: the live state plus
// recently superseded ones, newest first.
type Record struct {
	current  *State
	previous []*State
	fresh    bool
}

// NewRecord returns a record holding an empty state.
func NewRecord(limits Limits) *Record {
	return &Record{current: NewState(limits), fresh: true}
}

// NewRecordFromState wraps an existing state.
func NewRecordFromState(st *State) *Record {
	return &Record{current: st}
}

// State is the live state.
func (r *Record) State() *State { return r.current }

// PreviousStates returns archived states, newest first.
func (r *Record) PreviousStates() []*State { return r.previous }

// IsFresh reports whether the record has never held an initialised session.
func (r *Record) IsFresh() bool { return r.fresh }

// HasSessionState reports whether any state in the record was set up with
// aliceBaseKey at version. A repeated initial message matches here.
func (r *Record) HasSessionState(version int, aliceBaseKey types.X25519Public) bool {
	if r.current.Version() == version && r.current.AliceBaseKey() == aliceBaseKey {
		return true
	}
	for _, st := range r.previous {
		if st.Version() == version && st.AliceBaseKey() == aliceBaseKey {
			return true
		}
	}
	return false
}

// ArchiveCurrentState moves the live state into the archive and replaces it
// with an empty one.
func (r *Record) ArchiveCurrentState() {
	r.PromoteState(NewState(r.current.Limits()))
}

// PromoteState makes st the live state and archives the old one.
func (r *Record) PromoteState(st *State) {
	r.fresh = false
	r.previous = append([]*State{r.current}, r.previous...)
	r.current = st
	if len(r.previous) > MaxArchivedStates {
		r.previous = r.previous[:MaxArchivedStates]
	}
}

// SetState replaces the live state without archiving.
func (r *Record) SetState(st *State) {
	r.fresh = false
	r.current = st
}

// RestoreArchived promotes the archived state at index i. It is used when a
// message decrypts under an older state.
func (r *Record) RestoreArchived(i int, st *State) {
	r.previous = append(r.previous[:i:i], r.previous[i+1:]...)
	r.PromoteState(st)
}

// SetLimits applies l to every state in the record.
func (r *Record) SetLimits(l Limits) {
	r.current.SetLimits(l)
	for _, st := range r.previous {
		st.SetLimits(l)
	}
}

// MarshalBinary encodes the record as CBOR.
func (r *Record) MarshalBinary() ([]byte, error) {
	dto := recordDTO{Current: stateToDTO(r.current), Fresh: r.fresh}
	for _, st := range r.previous {
		dto.Previous = append(dto.Previous, stateToDTO(st))
	}
	return cbor.Marshal(dto)
}

// UnmarshalBinary decodes a record produced by MarshalBinary. States get
// DefaultLimits; call SetLimits to override.
func (r *Record) UnmarshalBinary(b []byte) error {
	var dto recordDTO
	if err := cbor.Unmarshal(b, &dto); err != nil {
		return fmt.Errorf("decode session record: %w", err)
	}
	cur, err := dto.Current.toState()
	if err != nil {
		return err
	}
	prev := make([]*State, 0, len(dto.Previous))
	for _, d := range dto.Previous {
		st, err := d.toState()
		if err != nil {
			return err
		}
		prev = append(prev, st)
	}
	r.current, r.previous, r.fresh = cur, prev, dto.Fresh
	return nil
}
