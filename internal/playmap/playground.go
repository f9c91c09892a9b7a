package playmap

import (
	"slices"
	"time"
)

// Coordinates is a GPS fix in decimal degrees. Accuracy is in meters.
type Coordinates struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// Location describes where a playground is. At least one of Address or
// Coordinates must be present on a valid record.
type Location struct {
	Address     string       `json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Timestamp   *time.Time   `json:"timestamp,omitempty"`
}

// Playground is a catalog record.
type Playground struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Location     Location  `json:"location"`
	Rating       int       `json:"rating"`
	Notes        string    `json:"notes"`
	Photos       []string  `json:"photos"`
	DateAdded    time.Time `json:"dateAdded"`
	DateModified time.Time `json:"dateModified"`
}

// Draft holds the caller-supplied fields of a new playground.
type Draft struct {
	Name     string
	Location Location
	Rating   int
	Notes    string
	Photos   []string
}

// Update is a partial update. Nil fields are left unchanged.
type Update struct {
	Name     *string
	Location *Location
	Rating   *int
	Notes    *string
	Photos   *[]string
}

// PhotoData describes a photo file reconstructed from its filename.
type PhotoData struct {
	URI          string
	Filename     string
	PlaygroundID string
	Timestamp    time.Time
	Thumbnail    string
}

// Clone returns a deep copy of p.
func (p *Playground) Clone() *Playground {
	c := *p
	c.Location = p.Location.clone()
	c.Photos = slices.Clone(p.Photos)
	if c.Photos == nil {
		c.Photos = []string{}
	}
	return &c
}

// HasCoordinates reports whether the record carries a GPS fix.
func (p *Playground) HasCoordinates() bool {
	return p.Location.Coordinates != nil
}

func (l Location) clone() Location {
	c := l
	if l.Coordinates != nil {
		coords := *l.Coordinates
		if l.Coordinates.Accuracy != nil {
			acc := *l.Coordinates.Accuracy
			coords.Accuracy = &acc
		}
		c.Coordinates = &coords
	}
	if l.Timestamp != nil {
		ts := *l.Timestamp
		c.Timestamp = &ts
	}
	return c
}

// apply merges u onto a copy of p.
func (u Update) apply(p *Playground) *Playground {
	merged := p.Clone()
	if u.Name != nil {
		merged.Name = *u.Name
	}
	if u.Location != nil {
		merged.Location = u.Location.clone()
	}
	if u.Rating != nil {
		merged.Rating = *u.Rating
	}
	if u.Notes != nil {
		merged.Notes = *u.Notes
	}
	if u.Photos != nil {
		merged.Photos = slices.Clone(*u.Photos)
		if merged.Photos == nil {
			merged.Photos = []string{}
		}
	}
	return merged
}

func clonePlaygrounds(list []*Playground) []*Playground {
	out := make([]*Playground, len(list))
	for i, p := range list {
		out[i] = p.Clone()
	}
	return out
}
