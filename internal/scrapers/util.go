// Package scrapers holds the listing-agent source adapters (Redfin,
// HomeHarvest, Realtor, Zillow, Google CSE), each implementing Source;
// every adapter but Google CSE fetches through its own gateway.Gateway
// over one shared *http.Client. Grounded on scrapers/redfin.py,
// zillow.py, realtor.py, homeharvest_scraper.py and google_search.py.
package scrapers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dispodojo/agentfinder/internal/property"
)

// Source is the contract every agent-lookup adapter implements.
type Source interface {
	Name() string
	Search(p property.Property) (*property.AgentInfo, error)
}

var nonDigitRe = regexp.MustCompile(`\D`)

// CleanPhone normalizes a phone number to "(XXX) XXX-XXXX", passing
// through unparseable input unchanged (trimmed).
func CleanPhone(phone string) string {
	if phone == "" {
		return ""
	}
	digits := nonDigitRe.ReplaceAllString(phone, "")
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}
	if len(digits) == 10 {
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	}
	return strings.TrimSpace(phone)
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// CleanEmail validates and lowercases an email address, returning "" if
// it doesn't look like a real address.
func CleanEmail(email string) string {
	e := strings.ToLower(strings.TrimSpace(email))
	if emailRe.MatchString(e) {
		return e
	}
	return ""
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05.999999Z",
	"01/02/2006",
	"01-02-2006",
	"Jan 2, 2006",
}

// ComputeDaysOnMarket derives a "days since listed" string from a date
// string in any of several observed upstream formats (or a Unix
// timestamp, in seconds or milliseconds). Returns "" if unparseable.
func ComputeDaysOnMarket(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, dateStr); err == nil {
			return daysSince(parsed)
		}
	}
	if ts, err := strconv.ParseInt(dateStr, 10, 64); err == nil {
		if ts > 1e12 {
			ts /= 1000
		}
		return daysSince(time.Unix(ts, 0))
	}
	return ""
}

func daysSince(t time.Time) string {
	days := int(time.Since(t).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return strconv.Itoa(days)
}

// FormatPrice formats an integer cents-free dollar amount as "$1,234,567".
func FormatPrice(cents int) string {
	s := strconv.Itoa(cents)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	prefix := "$"
	if neg {
		prefix = "-$"
	}
	return prefix + string(out)
}
