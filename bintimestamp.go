package bitserializer

import "time"

// BinTimestamp is the canonical representation for binary timestamp types
// (MessagePack's native timestamp extension) and the pivot between an
// archive and time.Time/time.Duration, ported from bin_timestamp.h.
type BinTimestamp struct {
	Seconds     int64
	Nanoseconds int32
}

// TimeToBinTimestamp converts t to a BinTimestamp, ported from
// bin_timestamp.h's To(time_point, CBinTimestamp&). Go's time.Time is always
// nanosecond-precision, so this always takes the "finer than seconds"
// branch of the original's compile-time precision switch.
func TimeToBinTimestamp(t time.Time) BinTimestamp {
	return BinTimestamp{Seconds: t.Unix(), Nanoseconds: int32(t.Nanosecond())}
}

// BinTimestampToTime converts ts to a time.Time in UTC, ported from
// bin_timestamp.h's To(CBinTimestamp, time_point&).
func BinTimestampToTime(ts BinTimestamp) time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanoseconds)).UTC()
}

// DurationToBinTimestamp converts d to a BinTimestamp, ported from
// bin_timestamp.h's To(duration, CBinTimestamp&).
func DurationToBinTimestamp(d time.Duration) BinTimestamp {
	seconds := int64(d / time.Second)
	left := d - time.Duration(seconds)*time.Second
	return BinTimestamp{Seconds: seconds, Nanoseconds: int32(left)}
}

// BinTimestampToDuration converts ts to a time.Duration, ported from
// bin_timestamp.h's To(CBinTimestamp, duration&). Returns an Overflow error
// if the seconds component does not fit in a time.Duration's nanosecond
// range (the Go analogue of the original's "precision of target duration
// type is not sufficient" check, since time.Duration has no coarser-than-
// nanosecond variant to reject outright).
func BinTimestampToDuration(ts BinTimestamp) (time.Duration, error) {
	nanos, err := SafeDurationCast(ts.Seconds, int64(time.Second), 1)
	if err != nil {
		return 0, err
	}
	if err := SafeAddDuration(&nanos, int64(ts.Nanoseconds)); err != nil {
		return 0, err
	}
	return time.Duration(nanos), nil
}
