package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	isoDurationRe = regexp.MustCompile(`(?i)^P(?:(\d+(?:\.\d+)?)D)?(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)
	hoursRe       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
	minutesRe     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:minutes?|mins?|m)\b`)
)

// ParseTime converts a duration to whole minutes. It understands ISO-8601
// durations ("PT1H30M", "P0DT45M") and phrases such as "1 hour 30 mins" or
// "45 min". Unrecognised or empty input returns 0, meaning unknown.
func ParseTime(text string) int {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}

	if m := isoDurationRe.FindStringSubmatch(s); m != nil && len(s) > 1 {
		total := atof(m[1])*24*60 + atof(m[2])*60 + atof(m[3]) + atof(m[4])/60
		return Minutes(total)
	}

	var total float64
	matched := false
	for _, m := range hoursRe.FindAllStringSubmatch(s, -1) {
		total += atof(m[1]) * 60
		matched = true
	}
	for _, m := range minutesRe.FindAllStringSubmatch(s, -1) {
		total += atof(m[1])
		matched = true
	}
	if !matched {
		return 0
	}
	return Minutes(total)
}

// MaxMinutes caps a parsed duration.
const MaxMinutes = math.MaxInt32

// Minutes rounds a minute count to an int in [0, MaxMinutes].
func Minutes(total float64) int {
	switch {
	case math.IsNaN(total) || total <= 0:
		return 0
	case total >= MaxMinutes:
		return MaxMinutes
	}
	return int(math.Round(total))
}

func atof(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
