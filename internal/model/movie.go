package model

import "fmt"

// Movie is a catalog entry. Movies are loaded by an external catalog process
// and are read-only here; the only thing this service changes is whether a
// user has marked one as a favorite.
//
// TmdbID is the external catalog identifier used to address a movie in the
// favorites API. Favorite is not stored on the node: it is computed per
// request from the presence of a HAS_FAVORITE edge.
type Movie struct {
	TmdbID     string   `json:"tmdbId"`
	Title      string   `json:"title"`
	Year       int64    `json:"year,omitempty"`
	Released   string   `json:"released,omitempty"`
	ImdbRating float64  `json:"imdbRating,omitempty"`
	Runtime    int64    `json:"runtime,omitempty"`
	Plot       string   `json:"plot,omitempty"`
	Poster     string   `json:"poster,omitempty"`
	Languages  []string `json:"languages,omitempty"`
	Countries  []string `json:"countries,omitempty"`
	Budget     int64    `json:"budget,omitempty"`
	Revenue    int64    `json:"revenue,omitempty"`
	Favorite   bool     `json:"favorite"`
}

// MovieFromProperties builds a Movie from a property map as returned by a
// graph store projection such as `m { .*, favorite: true }`.
//
// Catalog loaders are not consistent about property types (a year may arrive
// as an integer or a string, a release date as a string or a temporal value),
// so every field is converted leniently and unknown properties are ignored.
func MovieFromProperties(props map[string]any) Movie {
	m := Movie{
		TmdbID:     asString(props["tmdbId"]),
		Title:      asString(props["title"]),
		Year:       asInt64(props["year"]),
		Released:   asString(props["released"]),
		ImdbRating: asFloat64(props["imdbRating"]),
		Runtime:    asInt64(props["runtime"]),
		Plot:       asString(props["plot"]),
		Poster:     asString(props["poster"]),
		Languages:  asStrings(props["languages"]),
		Countries:  asStrings(props["countries"]),
		Budget:     asInt64(props["budget"]),
		Revenue:    asInt64(props["revenue"]),
	}
	if fav, ok := props["favorite"].(bool); ok {
		m.Favorite = fav
	}
	return m
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		var n int64
		if _, err := fmt.Sscan(t, &n); err == nil {
			return n
		}
	}
	return 0
}

func asFloat64(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case string:
		var f float64
		if _, err := fmt.Sscan(t, &f); err == nil {
			return f
		}
	}
	return 0
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, asString(item))
		}
		return out
	}
	return nil
}
