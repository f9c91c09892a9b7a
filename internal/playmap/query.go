package playmap

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOption selects the ordering of a projected catalog view.
type SortOption string

const (
	SortByName      SortOption = "name"
	SortByRating    SortOption = "rating"
	SortByDateAdded SortOption = "dateAdded"
	SortByDistance  SortOption = "distance"
)

// earthRadiusKm is the mean Earth radius used for distance sorting.
const earthRadiusKm = 6371.0

// ParseSortOption converts a user-supplied sort key.
func ParseSortOption(s string) (SortOption, error) {
	switch strings.ToLower(s) {
	case "name":
		return SortByName, nil
	case "rating":
		return SortByRating, nil
	case "", "dateadded", "date", "date-added":
		return SortByDateAdded, nil
	case "distance":
		return SortByDistance, nil
	default:
		return "", fmt.Errorf("unknown sort option: %q", s)
	}
}

// Filter restricts a projected view. An empty Ratings set and a nil
// HasPhotos disable the respective predicate.
type Filter struct {
	Ratings   []int
	HasPhotos *bool
}

// Project returns the filtered and sorted view of list. It never mutates
// list or its records' order and is deterministic for equal inputs.
func Project(list []*Playground, sortBy SortOption, filter Filter, ref *Coordinates) []*Playground {
	out := make([]*Playground, 0, len(list))
	for _, p := range list {
		if len(filter.Ratings) > 0 && !slices.Contains(filter.Ratings, p.Rating) {
			continue
		}
		if filter.HasPhotos != nil && (len(p.Photos) > 0) != *filter.HasPhotos {
			continue
		}
		out = append(out, p)
	}

	switch sortBy {
	case SortByName:
		col := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b *Playground) int {
			return col.CompareString(a.Name, b.Name)
		})
	case SortByRating:
		slices.SortStableFunc(out, func(a, b *Playground) int {
			return b.Rating - a.Rating
		})
	case SortByDistance:
		if ref == nil || !allHaveCoordinates(out) {
			sortByDateAdded(out)
			break
		}
		dist := make(map[*Playground]float64, len(out))
		for _, p := range out {
			dist[p] = Distance(*ref, *p.Location.Coordinates)
		}
		slices.SortStableFunc(out, func(a, b *Playground) int {
			switch {
			case dist[a] < dist[b]:
				return -1
			case dist[a] > dist[b]:
				return 1
			}
			return 0
		})
	default:
		sortByDateAdded(out)
	}

	return out
}

func sortByDateAdded(list []*Playground) {
	slices.SortStableFunc(list, func(a, b *Playground) int {
		return b.DateAdded.Compare(a.DateAdded)
	})
}

func allHaveCoordinates(list []*Playground) bool {
	for _, p := range list {
		if !p.HasCoordinates() {
			return false
		}
	}
	return true
}

// Distance returns the great-circle distance between a and b in kilometers,
// rounded to two decimals.
func Distance(a, b Coordinates) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(earthRadiusKm*c*100) / 100
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
