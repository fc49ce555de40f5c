package bitserializer

import "fmt"

// Number is satisfied by every primitive numeric kind the Conversion Layer
// moves between a scope's Value and a Go numeric field (§4.4).
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// ConvertNumber converts v to T2, applying policy when v does not survive
// the conversion exactly. The overflow check is a round trip: convert to
// T2 and back to T1 and compare against the original — the same technique
// convert_chrono.h's SafeDurationCast uses to detect a narrowing cast.
func ConvertNumber[T1, T2 Number](v T1, policy OverflowNumberPolicy) (T2, error) {
	t := T2(v)
	back := T1(t)
	if back != v {
		if policy == OverflowSkip {
			return t, nil
		}
		return t, NewOverflowError("", fmt.Sprintf("value %v does not fit the target numeric type", v))
	}
	return t, nil
}

const (
	maxInt64 = int64(1<<63 - 1)
	minInt64 = -maxInt64 - 1
)

// SafeDurationCast converts count (expressed in units of numerator/denominator
// nanoseconds — e.g. a seconds count has numerator=1e9, denominator=1) to a
// nanosecond count, checking for overflow at each step exactly as
// convert_chrono.h's SafeDurationCast does: scale by numerator first
// (checked), then divide by denominator, rejecting the result if it does not
// divide evenly back to the scaled value.
func SafeDurationCast(count, numerator, denominator int64) (int64, error) {
	if numerator == 0 {
		return 0, fmt.Errorf("bitserializer: SafeDurationCast: zero numerator")
	}
	if denominator == 0 {
		return 0, fmt.Errorf("bitserializer: SafeDurationCast: zero denominator")
	}

	if numerator != 1 {
		if count > maxInt64/numerator || count < minInt64/numerator {
			return 0, NewOverflowError("", "duration cast exceeds the representable range")
		}
	}
	scaled := count * numerator

	if denominator == 1 {
		return scaled, nil
	}
	result := scaled / denominator
	if result*denominator != scaled {
		return 0, NewOverflowError("", "duration cast would lose precision")
	}
	return result, nil
}

// SafeAddDuration adds delta to *total, returning an Overflow error instead
// of silently wrapping on int64 overflow (§4.4's "WITHOUT truncation"
// guarantee for duration arithmetic).
func SafeAddDuration(total *int64, delta int64) error {
	if delta == 0 {
		return nil
	}
	if (delta > 0 && *total > maxInt64-delta) || (delta < 0 && *total < minInt64-delta) {
		return NewOverflowError("", "duration addition exceeds the representable range")
	}
	*total += delta
	return nil
}
