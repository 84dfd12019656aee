package progress

import (
	"fmt"
	"slices"
	"time"

	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/models"
)

// Bucket is the grouping granularity of a load series.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ParseBucket validates a bucket name. Empty defaults to day.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case "":
		return BucketDay, nil
	case BucketDay, BucketWeek, BucketMonth:
		return b, nil
	default:
		return "", fmt.Errorf("unknown bucket %q (use day, week or month)", s)
	}
}

// Point is the summed load of one bucket. Start is the first instant of the
// bucket in the sessions' location.
type Point struct {
	Start     time.Time `json:"start"`
	TotalLoad float64   `json:"total_load"`
	Sessions  int       `json:"sessions"`
}

// Series sums session load per bucket, ascending by bucket start. Weeks
// start on Monday. Only the last maxPoints buckets are returned; maxPoints
// <= 0 returns all of them.
func Series(sessions []models.SessionRow, bucket Bucket, maxPoints int) []Point {
	byStart := make(map[int64]*Point)
	for _, s := range sessions {
		start := bucketStart(s.Date, bucket)
		p, ok := byStart[start.UnixNano()]
		if !ok {
			p = &Point{Start: start}
			byStart[start.UnixNano()] = p
		}
		p.TotalLoad += s.TotalLoad
		p.Sessions++
	}

	points := make([]Point, 0, len(byStart))
	for _, p := range byStart {
		p.TotalLoad = load.Round2(p.TotalLoad)
		points = append(points, *p)
	}
	slices.SortFunc(points, func(a, b Point) int { return a.Start.Compare(b.Start) })

	if maxPoints > 0 && len(points) > maxPoints {
		points = points[len(points)-maxPoints:]
	}
	return points
}

func bucketStart(t time.Time, bucket Bucket) time.Time {
	day := startOfDay(t)
	switch bucket {
	case BucketWeek:
		// ISO weeks start on Monday; the legacy app's chart started them on Sunday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case BucketMonth:
		return day.AddDate(0, 0, 1-day.Day())
	default:
		return day
	}
}
