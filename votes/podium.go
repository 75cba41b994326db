package votes

import (
	"sort"

	"github.com/spektr-org/sockenstudie/engine"
)

// Place is one podium entry.
type Place struct {
	Rank    int               `json:"rank"`
	Subject string            `json:"subject"`
	Votes   int               `json:"votes"`
	Image   engine.ImageEntry `json:"image"`
}

// Podium ranks images by vote count, highest first. Ties keep the input
// order of images. Returns nil when no image has a vote.
func Podium(images []engine.ImageEntry, counts Counts, n int) []Place {
	if n <= 0 || len(images) == 0 {
		return nil
	}
	places := make([]Place, 0, len(images))
	seen := make(map[string]bool, len(images))
	for _, img := range images {
		id := SubjectID(img.FileRef)
		if seen[id] {
			continue
		}
		seen[id] = true
		places = append(places, Place{Subject: id, Votes: counts[id], Image: img})
	}
	sort.SliceStable(places, func(i, j int) bool { return places[i].Votes > places[j].Votes })

	if places[0].Votes == 0 {
		return nil
	}
	if len(places) > n {
		places = places[:n]
	}
	for i := range places {
		places[i].Rank = i + 1
	}
	return places
}
