package event

import (
	"fmt"
	"strings"
	"time"
)

// Source tags where a raw record came from. Local records derive their id
// from the artist name; remote records carry the store-assigned document key.
type Source int

const (
	SourceLocal Source = iota
	SourceRemote
)

// Raw is one record as it arrives from either feed, before any shape
// guarantees hold. Fields is the loose key/value bag of the source document;
// dates may be ISO-8601 strings, {seconds} maps, epoch numbers, or native
// timestamps depending on where the record was written from.
type Raw struct {
	Source Source
	ID     string
	Fields map[string]any
}

// monthAbbrs are locale-invariant, three-letter, uppercase month labels.
var monthAbbrs = [12]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// MonthAbbr returns the display label for a month.
func MonthAbbr(m time.Month) string {
	return monthAbbrs[int(m)-1]
}

// LocalID derives the stable id used for bundled fallback records.
func LocalID(artistName string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(artistName), "-"))
	return "local-" + slug
}

// Normalize converts a raw record into a canonical Event. A missing required
// field or an unresolvable date fails with a *DataError; derived fields
// (venueFullName, imageAlt, display labels) are only computed when the source
// did not pin them.
func Normalize(raw Raw) (Event, error) {
	f := raw.Fields

	artist := str(f, "artistName")
	if artist == "" {
		return Event{}, dataErrf("artistName", "required field is empty")
	}
	name := str(f, "eventName")
	if name == "" {
		return Event{}, dataErrf("eventName", "required field is empty")
	}

	date, err := ParseInstant(f["eventDate"])
	if err != nil {
		return Event{}, dataErrf("eventDate", "%v", err)
	}

	id := raw.ID
	if id == "" && raw.Source == SourceLocal {
		id = LocalID(artist)
	}
	if id == "" {
		return Event{}, dataErrf("id", "remote record carries no document key")
	}

	e := Event{
		ID:            id,
		ArtistName:    artist,
		EventName:     name,
		EventDate:     date,
		PerformerType: str(f, "performerType"),
		VenueName:     str(f, "venueName"),
		VenueCity:     str(f, "venueCity"),
		VenueState:    str(f, "venueState"),
		VenueFullName: str(f, "venueFullName"),
		TicketURL:     str(f, "ticketUrl"),
		ImageAlt:      str(f, "imageAlt"),
	}
	if e.PerformerType == "" {
		e.PerformerType = DefaultPerformerType
	}

	// Display labels: respect a pinned override, derive otherwise.
	e.DisplayMonth = str(f, "displayMonth")
	if e.DisplayMonth == "" {
		e.DisplayMonth = MonthAbbr(date.Month())
	}
	e.DisplayDay = str(f, "displayDay")
	if e.DisplayDay == "" {
		e.DisplayDay = fmt.Sprintf("%02d", date.Day())
	}

	e.ImageURL, e.ImagePath = resolveImage(f)

	if e.ImageAlt == "" {
		e.ImageAlt = artist + " - " + name
	}
	if e.VenueFullName == "" && e.VenueName != "" {
		e.VenueFullName = e.VenueLine()
	}

	published, ok := f["isPublished"].(bool)
	if !ok {
		published = true
	}
	e.IsPublished = published

	e.Schedule = scheduleItems(f["schedule"])
	e.Dates, err = engagementDates(f["dates"], e.TicketURL)
	if err != nil {
		return Event{}, err
	}

	if v, ok := f["createdAt"]; ok {
		if t, err := ParseInstant(v); err == nil {
			e.CreatedAt = t
		}
	}
	if v, ok := f["updatedAt"]; ok {
		if t, err := ParseInstant(v); err == nil {
			e.UpdatedAt = t
		}
	}
	e.CreatedBy = str(f, "createdBy")
	e.UpdatedBy = str(f, "updatedBy")

	return e, nil
}

// instantLayouts are tried in order for string dates. Local-wall-clock values
// (no zone suffix) resolve in UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseInstant resolves any of the source date representations to a single
// instant. Unparseable input is an error, never substituted with the current
// time.
func ParseInstant(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("missing date")
	case time.Time:
		if d.IsZero() {
			return time.Time{}, fmt.Errorf("zero timestamp")
		}
		return d.UTC(), nil
	case string:
		if d == "" {
			return time.Time{}, fmt.Errorf("empty date string")
		}
		for _, layout := range instantLayouts {
			if t, err := time.ParseInLocation(layout, d, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", d)
	case map[string]any:
		// Store-native timestamp shape: {seconds, nanos?}.
		secs, ok := asInt64(d["seconds"])
		if !ok {
			return time.Time{}, fmt.Errorf("timestamp map without seconds")
		}
		nanos, _ := asInt64(d["nanos"])
		return time.Unix(secs, nanos).UTC(), nil
	case int, int32, int64, float64:
		secs, _ := asInt64(d)
		if secs <= 0 {
			return time.Time{}, fmt.Errorf("non-positive epoch seconds")
		}
		return time.Unix(secs, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

// resolveImage applies the image provenance priority: owned-asset path,
// explicit external URL, local asset filename, placeholder logo. The order is
// load-bearing for legacy records.
func resolveImage(f map[string]any) (url, path string) {
	if p := str(f, "imagePath"); p != "" {
		if u := str(f, "imageUrl"); u != "" {
			return u, p
		}
		return "/" + strings.TrimPrefix(p, "/"), p
	}
	if u := str(f, "imageUrl"); u != "" {
		return u, ""
	}
	if name := str(f, "imageName"); name != "" {
		return "assets/" + name, ""
	}
	return PlaceholderImage, ""
}

func scheduleItems(v any) []ScheduleItem {
	rows, ok := v.([]any)
	if !ok {
		return nil
	}
	var items []ScheduleItem
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		item := ScheduleItem{Time: str(m, "time"), Description: str(m, "description")}
		if item.Time == "" || item.Description == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

func engagementDates(v any, primaryTicketURL string) ([]EngagementDate, error) {
	rows, ok := v.([]any)
	if !ok {
		return nil, nil
	}
	var dates []EngagementDate
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		t, err := ParseInstant(m["date"])
		if err != nil {
			return nil, dataErrf("dates", "%v", err)
		}
		url := str(m, "ticketUrl")
		if url == "" {
			url = primaryTicketURL
		}
		dates = append(dates, EngagementDate{Date: t, TicketURL: url})
	}
	return dates, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
