package weather

import (
	"math"
	"time"
)

// DayBucket holds the forecast entries falling on one calendar day.
type DayBucket struct {
	Date    time.Time // midnight in the bucketing zone
	Entries []ForecastEntry
}

// BucketByDay groups entries by calendar day in loc, in first-seen order.
func BucketByDay(entries []ForecastEntry, loc *time.Location) []DayBucket {
	var buckets []DayBucket
	index := make(map[string]int)

	for _, e := range entries {
		ts := e.Time.In(loc)
		k := ts.Format("2006-01-02")

		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, DayBucket{
				Date: time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc),
			})
		}
		buckets[i].Entries = append(buckets[i].Entries, e)
	}
	return buckets
}

// MinMax returns the lowest and highest temperature in the bucket.
func (b DayBucket) MinMax() (float64, float64) {
	if len(b.Entries) == 0 {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, e := range b.Entries {
		lo = math.Min(lo, e.Temp)
		hi = math.Max(hi, e.Temp)
	}
	return lo, hi
}

// Dominant returns the entry whose condition represents the day.
func (b DayBucket) Dominant() ForecastEntry {
	return dominantEntry(b.Entries)
}

// PrecipChance returns the highest probability of precipitation as a whole
// percentage, and false when no entry carries one.
func (b DayBucket) PrecipChance() (int, bool) {
	var best float64
	var any bool
	for _, e := range b.Entries {
		if e.Pop > 0 {
			any = true
		}
		best = math.Max(best, e.Pop)
	}
	if !any {
		return 0, false
	}
	return int(math.Round(best * 100)), true
}

func dominantEntry(entries []ForecastEntry) ForecastEntry {
	if len(entries) == 0 {
		return ForecastEntry{}
	}
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ConditionID
	}
	id := DominantCondition(ids)
	for _, e := range entries {
		if e.ConditionID == id {
			return e
		}
	}
	return entries[0]
}
