package sample

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/getmockd/oasmock/pkg/prng"
)

const lowerAlphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

var topLevelDomains = []string{"com", "net", "org", "io", "co.uk", "de"}

// formats maps string formats to their generators.
var formats = map[string]func(*prng.Rand) string{
	"date-time": dateTime,
	"date":      date,
	"time":      timeOfDay,
	"email":     email,
	"uuid":      uuidString,
	"uri":       uri,
	"hostname":  hostname,
	"ipv4":      ipv4,
	"ipv6":      ipv6,
	"duration":  duration,
}

// Formats returns the names of the supported string formats.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	return names
}

func dateTime(r *prng.Rand) string {
	return date(r) + "T" + timeOfDay(r)
}

func date(r *prng.Rand) string {
	year := r.Int(1970, 2035)
	month := r.Int(1, 12)
	day := r.Int(1, 30)
	return fmt.Sprintf("%d-%02d-%02d", year, month, day)
}

func timeOfDay(r *prng.Rand) string {
	h := r.Int(0, 23)
	m := r.Int(0, 59)
	s := r.Int(0, 59)
	return fmt.Sprintf("%02d:%02d:%02d+00:00", h, m, s)
}

// duration builds an ISO 8601 duration where every component is optional.
func duration(r *prng.Rand) string {
	var b strings.Builder
	b.WriteString("P")
	part := func(min, max int64, unit string) {
		if r.Bool() {
			b.WriteString(strconv.FormatInt(r.Int(min, max), 10) + unit)
		}
	}
	part(0, 9, "Y")
	part(0, 11, "M")
	part(0, 30, "D")
	if r.Bool() {
		b.WriteString("T")
		part(0, 23, "H")
		part(0, 59, "M")
		part(0, 59, "S")
	}
	out := b.String()
	switch {
	case out == "P":
		return "PT0S"
	case strings.HasSuffix(out, "T"):
		return out + "0S"
	}
	return out
}

// chars draws n characters from alphabet.
func chars(r *prng.Rand, alphabet string, n int64) string {
	var b strings.Builder
	for i := int64(0); i < n; i++ {
		b.WriteByte(alphabet[int(r.Float64()*float64(len(alphabet)))])
	}
	return b.String()
}

func tld(r *prng.Rand) string {
	return topLevelDomains[int(r.Float64()*float64(len(topLevelDomains)))]
}

func email(r *prng.Rand) string {
	userLen := r.Int(5, 15)
	domainLen := r.Int(3, 12)
	user := chars(r, lowerAlphanumeric, userLen)
	domain := chars(r, lowerAlphanumeric, domainLen)
	return user + "@" + domain + "." + tld(r)
}

func hostname(r *prng.Rand) string {
	return chars(r, lowerAlphanumeric, r.Int(5, 14))
}

func ipv4(r *prng.Rand) string {
	parts := make([]string, 4)
	for i := range parts {
		parts[i] = strconv.Itoa(int(r.Float64() * 256))
	}
	return strings.Join(parts, ".")
}

func ipv6(r *prng.Rand) string {
	blocks := make([]string, 8)
	for i := range blocks {
		blocks[i] = fmt.Sprintf("%04x", int(r.Float64()*65536))
	}
	return strings.Join(blocks, ":")
}

func uuidString(r *prng.Rand) string {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return uuid.Nil.String()
	}
	return id.String()
}

func uri(r *prng.Rand) string {
	domainLen := r.Int(3, 12)
	segments := r.Int(1, 10)

	domain := chars(r, lowerAlphanumeric, domainLen)
	path := make([]string, 0, segments)
	for i := int64(0); i < segments; i++ {
		path = append(path, chars(r, lowerAlphanumeric, r.Int(1, 10)))
	}
	return "https://" + domain + "." + tld(r) + "/" + strings.Join(path, "/")
}
