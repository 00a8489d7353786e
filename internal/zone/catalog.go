package zone

// Entry describes one selectable zone.
type Entry struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Region string `json:"region"`
}

// catalog is the curated list offered to users. It is intentionally not the
// full tz registry; callers must not assume completeness.
var catalog = []Entry{
	{ID: "UTC", Label: "Coordinated Universal Time", Region: "UTC"},
	{ID: "GMT", Label: "Greenwich Mean Time", Region: "UTC"},

	{ID: "America/New_York", Label: "US Eastern (New York)", Region: "Americas"},
	{ID: "America/Chicago", Label: "US Central (Chicago)", Region: "Americas"},
	{ID: "America/Denver", Label: "US Mountain (Denver)", Region: "Americas"},
	{ID: "America/Phoenix", Label: "US Mountain, no DST (Phoenix)", Region: "Americas"},
	{ID: "America/Los_Angeles", Label: "US Pacific (Los Angeles)", Region: "Americas"},
	{ID: "America/Anchorage", Label: "Alaska (Anchorage)", Region: "Americas"},
	{ID: "Pacific/Honolulu", Label: "Hawaii (Honolulu)", Region: "Americas"},
	{ID: "America/Toronto", Label: "Eastern Canada (Toronto)", Region: "Americas"},
	{ID: "America/Halifax", Label: "Atlantic (Halifax)", Region: "Americas"},
	{ID: "America/St_Johns", Label: "Newfoundland (St. John's)", Region: "Americas"},
	{ID: "America/Mexico_City", Label: "Mexico Central (Mexico City)", Region: "Americas"},
	{ID: "America/Bogota", Label: "Colombia (Bogota)", Region: "Americas"},
	{ID: "America/Sao_Paulo", Label: "Brazil Eastern (Sao Paulo)", Region: "Americas"},
	{ID: "America/Argentina/Buenos_Aires", Label: "Argentina (Buenos Aires)", Region: "Americas"},

	{ID: "Europe/London", Label: "UK (London)", Region: "Europe"},
	{ID: "Europe/Lisbon", Label: "Portugal (Lisbon)", Region: "Europe"},
	{ID: "Europe/Paris", Label: "Central Europe (Paris)", Region: "Europe"},
	{ID: "Europe/Berlin", Label: "Central Europe (Berlin)", Region: "Europe"},
	{ID: "Europe/Stockholm", Label: "Sweden (Stockholm)", Region: "Europe"},
	{ID: "Europe/Athens", Label: "Eastern Europe (Athens)", Region: "Europe"},
	{ID: "Europe/Istanbul", Label: "Turkey (Istanbul)", Region: "Europe"},
	{ID: "Europe/Moscow", Label: "Russia (Moscow)", Region: "Europe"},

	{ID: "Africa/Cairo", Label: "Egypt (Cairo)", Region: "Africa"},
	{ID: "Africa/Nairobi", Label: "East Africa (Nairobi)", Region: "Africa"},
	{ID: "Africa/Johannesburg", Label: "South Africa (Johannesburg)", Region: "Africa"},

	{ID: "Asia/Dubai", Label: "Gulf (Dubai)", Region: "Asia"},
	{ID: "Asia/Kolkata", Label: "India (Kolkata)", Region: "Asia"},
	{ID: "Asia/Kathmandu", Label: "Nepal (Kathmandu)", Region: "Asia"},
	{ID: "Asia/Bangkok", Label: "Indochina (Bangkok)", Region: "Asia"},
	{ID: "Asia/Singapore", Label: "Singapore", Region: "Asia"},
	{ID: "Asia/Shanghai", Label: "China (Shanghai)", Region: "Asia"},
	{ID: "Asia/Tokyo", Label: "Japan (Tokyo)", Region: "Asia"},
	{ID: "Asia/Seoul", Label: "Korea (Seoul)", Region: "Asia"},

	{ID: "Australia/Perth", Label: "Western Australia (Perth)", Region: "Oceania"},
	{ID: "Australia/Sydney", Label: "Australian Eastern (Sydney)", Region: "Oceania"},
	{ID: "Pacific/Auckland", Label: "New Zealand (Auckland)", Region: "Oceania"},
}

var catalogIndex = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, e := range catalog {
		m[e.ID] = i
	}
	return m
}()

// ListSupportedZones returns the catalog identifiers in display order.
func ListSupportedZones() []string {
	out := make([]string, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, e.ID)
	}
	return out
}

// Entries returns a copy of the full catalog.
func Entries() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Entry, bool) {
	i, ok := catalogIndex[id]
	if !ok {
		return Entry{}, false
	}
	return catalog[i], true
}

// IsSupported reports whether id is in the catalog.
func IsSupported(id string) bool {
	_, ok := catalogIndex[id]
	return ok
}
