package prayer

// Phase distinguishes the two notifications for one event kind. Each
// (kind, phase) pair keeps its own last-fired marker so a zero-offset
// second call cannot mask or re-arm the adhan.
type Phase string

const (
	Adhan Phase = "adhan"
	Iqama Phase = "iqama"
)

// Occurrence identifies one concrete firing of an event: the kind, the
// phase, and the exact minute it was due. Its string form is the marker
// value persisted per subscriber; equality against the stored marker is
// what makes repeated samples within the same minute idempotent.
type Occurrence struct {
	Kind  Kind
	Phase Phase
	Time  Clock
}

// Key returns the marker slot this occurrence occupies ("Fajr",
// "Fajr.iqama").
func (o Occurrence) Key() string {
	if o.Phase == Iqama {
		return string(o.Kind) + ".iqama"
	}
	return string(o.Kind)
}

// String returns the stored marker value ("adhan:Fajr@05:12"). A new
// provider timing for the same kind yields a different value, so the
// marker clears itself when the timestamp it references is no longer
// current.
func (o Occurrence) String() string {
	return string(o.Phase) + ":" + string(o.Kind) + "@" + string(o.Time)
}
