package bitserializer

import (
	"strconv"
	"strings"
	"time"
)

// ParseISO8601DateTime parses an ISO-8601/UTC datetime of the form
// YYYY-MM-DDThh:mm:ss[.SSSSSSSSS]Z, ported in structure from
// convert_chrono.h's ParseIsoUtc/To(string_view, time_point&) (Howard
// Hinnant's calendar algorithm). Go's time.Date already implements the same
// proleptic-Gregorian arithmetic Hinnant's civil_from_days derives by hand,
// so the calendar math is delegated to it rather than re-derived; only the
// parsing shape (fraction digits up to 9, mandatory trailing 'Z', optional
// leading '+' for a four-digit-overflowing year) is ported directly.
func ParseISO8601DateTime(s string) (time.Time, error) {
	if len(s) < len("0000-01-01T00:00:00Z") || s[len(s)-1] != 'Z' {
		return time.Time{}, NewParsingError("input string is not a valid ISO datetime: YYYY-MM-DDThh:mm:ss[.SSS]Z")
	}
	body := s[:len(s)-1]

	yearSign := int64(1)
	if strings.HasPrefix(body, "+") {
		body = body[1:]
	} else if strings.HasPrefix(body, "-") {
		// Proleptic negative years are not part of the documented format;
		// reject rather than silently misparse.
		return time.Time{}, NewParsingError("negative years are not supported in ISO datetime")
	}

	dateAndTime := strings.SplitN(body, "T", 2)
	if len(dateAndTime) != 2 {
		return time.Time{}, NewParsingError("input string is not a valid ISO datetime: YYYY-MM-DDThh:mm:ss[.SSS]Z")
	}

	dateParts := strings.Split(dateAndTime[0], "-")
	if len(dateParts) != 3 {
		return time.Time{}, NewParsingError("input string is not a valid ISO datetime: YYYY-MM-DDThh:mm:ss[.SSS]Z")
	}
	year, err := strconv.ParseInt(dateParts[0], 10, 64)
	if err != nil {
		return time.Time{}, NewParsingError("invalid year in ISO datetime")
	}
	year *= yearSign
	month, err := strconv.Atoi(dateParts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, NewParsingError("invalid month in ISO datetime")
	}
	day, err := strconv.Atoi(dateParts[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, NewParsingError("invalid day in ISO datetime")
	}

	timeAndFraction := strings.SplitN(dateAndTime[1], ".", 2)
	clockParts := strings.Split(timeAndFraction[0], ":")
	if len(clockParts) != 3 {
		return time.Time{}, NewParsingError("input string is not a valid ISO datetime: YYYY-MM-DDThh:mm:ss[.SSS]Z")
	}
	hour, err := strconv.Atoi(clockParts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, NewParsingError("invalid hour in ISO datetime")
	}
	minute, err := strconv.Atoi(clockParts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, NewParsingError("invalid minute in ISO datetime")
	}
	second, err := strconv.Atoi(clockParts[2])
	if err != nil || second < 0 || second > 59 {
		return time.Time{}, NewParsingError("invalid second in ISO datetime")
	}

	var nanos int
	if len(timeAndFraction) == 2 {
		nanos, err = parseSecondFractionDigits(timeAndFraction[1])
		if err != nil {
			return time.Time{}, err
		}
	}

	return time.Date(int(year), time.Month(month), day, hour, minute, second, nanos, time.UTC), nil
}

// parseSecondFractionDigits parses up to 9 fractional-second digits,
// mirroring ParseSecondFractions's "scale to nanoseconds" behavior.
func parseSecondFractionDigits(digits string) (int, error) {
	if len(digits) == 0 || len(digits) > 9 {
		return 0, NewParsingError("ISO datetime has invalid fractions of second")
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return 0, NewParsingError("ISO datetime has invalid fractions of second")
	}
	for i := len(digits); i < 9; i++ {
		value *= 10
	}
	return value, nil
}

// FormatISO8601DateTime renders t as YYYY-MM-DDThh:mm:ss[.SSSSSSSSS]Z,
// printing fractional seconds only when non-zero, mirroring PrintIsoUtc.
func FormatISO8601DateTime(t time.Time) string {
	t = t.UTC()
	var b strings.Builder
	year := t.Year()
	if year >= 10000 {
		b.WriteByte('+')
	}
	b.WriteString(pad4(year))
	b.WriteByte('-')
	b.WriteString(pad2(int(t.Month())))
	b.WriteByte('-')
	b.WriteString(pad2(t.Day()))
	b.WriteByte('T')
	b.WriteString(pad2(t.Hour()))
	b.WriteByte(':')
	b.WriteString(pad2(t.Minute()))
	b.WriteByte(':')
	b.WriteString(pad2(t.Second()))
	if nanos := t.Nanosecond(); nanos != 0 {
		b.WriteByte('.')
		frac := strconv.Itoa(nanos)
		for len(frac) < 9 {
			frac = "0" + frac
		}
		frac = strings.TrimRight(frac, "0")
		b.WriteString(frac)
	}
	b.WriteByte('Z')
	return b.String()
}

func pad2(v int) string {
	s := strconv.Itoa(v)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

func pad4(v int) string {
	s := strconv.Itoa(v)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
