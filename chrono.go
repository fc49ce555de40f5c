package bitserializer

import "time"

// serializeTime loads or saves t at the current position, preferring
// BinTimestamp when the backend is binary and an ISO-8601 string otherwise
// (§4.5). pos is the positioner bound to the current key or array slot.
// Returns ok=true if a value was present (Load) or written (Save).
func serializeTime(arc *Archive, pos positioner, t *time.Time, isBinary bool) (bool, error) {
	if isBinary {
		if arc.IsSaving() {
			var v any = TimeToBinTimestamp(*t)
			return pos.valueAt(&v)
		}
		var v any
		ok, err := pos.valueAt(&v)
		if err != nil || !ok {
			return ok, err
		}
		if loaded, ok := v.(BinTimestamp); ok {
			*t = BinTimestampToTime(loaded)
		}
		return true, nil
	}

	if arc.IsSaving() {
		s := FormatISO8601DateTime(*t)
		return pos.stringAt(&s)
	}
	var s string
	ok, err := pos.stringAt(&s)
	if err != nil || !ok {
		return ok, err
	}
	parsed, err := ParseISO8601DateTime(s)
	if err != nil {
		return false, err
	}
	*t = parsed
	return true, nil
}

// serializeDuration loads or saves d at the current position, preferring
// BinTimestamp when the backend is binary and an ISO-8601 duration string
// otherwise.
func serializeDuration(arc *Archive, pos positioner, d *time.Duration, isBinary bool) (bool, error) {
	if isBinary {
		if arc.IsSaving() {
			var v any = DurationToBinTimestamp(*d)
			return pos.valueAt(&v)
		}
		var v any
		ok, err := pos.valueAt(&v)
		if err != nil || !ok {
			return ok, err
		}
		loaded, ok := v.(BinTimestamp)
		if !ok {
			return false, NewMismatchedTypesError(arc.scope.Path(), "expected BinTimestamp")
		}
		dur, err := BinTimestampToDuration(loaded)
		if err != nil {
			return false, err
		}
		*d = dur
		return true, nil
	}

	if arc.IsSaving() {
		s := FormatISO8601Duration(*d)
		return pos.stringAt(&s)
	}
	var s string
	ok, err := pos.stringAt(&s)
	if err != nil || !ok {
		return ok, err
	}
	parsed, err := ParseISO8601Duration(s)
	if err != nil {
		return false, err
	}
	*d = parsed
	return true, nil
}

// serializeCTimeRef loads or saves c at integer-seconds precision (§4.5).
func serializeCTimeRef(arc *Archive, pos positioner, c *CTimeRef, isBinary bool) (bool, error) {
	t := time.Unix(c.Seconds, 0).UTC()
	ok, err := serializeTime(arc, pos, &t, isBinary)
	if err != nil || !ok {
		return ok, err
	}
	if arc.IsLoading() {
		c.Seconds = t.Unix()
	}
	return true, nil
}
