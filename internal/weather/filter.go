// In file: internal/weather/filter.go
package weather

import (
	"strings"

	"cloud.google.com/go/civil"
)

// FilterToDate slices the response in place so that only date remains.
//
// The daily section keeps the single index whose time equals date. The hourly
// section keeps the contiguous run of timestamps starting with date, up to the
// first later timestamp that does not. When nothing matches, every array in the
// section is emptied and its keys are kept. Non-array values are left untouched.
func FilterToDate(resp Response, date civil.Date) {
	day := date.String()
	if daily, ok := resp["daily"].(map[string]any); ok {
		start, end := dailyRange(times(daily), day)
		sliceSection(daily, start, end)
	}
	if hourly, ok := resp["hourly"].(map[string]any); ok {
		start, end := hourlyRange(times(hourly), day)
		sliceSection(hourly, start, end)
	}
}

// Restrict returns a new response holding only the listed top-level keys that are present.
func Restrict(resp Response, keys ...string) Response {
	out := make(Response, len(keys))
	for _, k := range keys {
		if v, ok := resp[k]; ok {
			out[k] = v
		}
	}
	return out
}

func times(section map[string]any) []string {
	raw, _ := section["time"].([]any)
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i], _ = v.(string)
	}
	return out
}

// dailyRange returns [i, i+1) for the exact match, or an empty range.
func dailyRange(ts []string, day string) (int, int) {
	for i, t := range ts {
		if t == day {
			return i, i + 1
		}
	}
	return 0, 0
}

func hourlyRange(ts []string, day string) (int, int) {
	start := -1
	for i, t := range ts {
		if strings.HasPrefix(t, day) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, 0
	}
	end := len(ts)
	for i := start + 1; i < len(ts); i++ {
		if !strings.HasPrefix(ts[i], day) {
			end = i
			break
		}
	}
	return start, end
}

// sliceSection applies [start, end) to every array in the section. Arrays
// shorter than the range are clipped.
func sliceSection(section map[string]any, start, end int) {
	for k, v := range section {
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		s, e := start, end
		if e > len(arr) {
			e = len(arr)
		}
		if s > e {
			s = e
		}
		section[k] = append([]any{}, arr[s:e]...)
	}
}
