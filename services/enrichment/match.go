package enrichment

import (
	"versegraph/lib/scrapers/spotify"
	"versegraph/lib/textutil"

	"github.com/antzucaro/matchr"
)

// matchThreshold is the minimum blended similarity for a catalog track to
// be accepted as the song. Below it the song is skipped rather than
// enriched with a wrong track's features.
const matchThreshold = 0.85

// bestMatch scores each candidate against the song's title and album
// using JaroWinkler over normalized keys, weighting title over album.
// Exact key equality short-circuits to a perfect score.
func bestMatch(title, album string, candidates []spotify.Track) (spotify.Track, float64, bool) {
	titleKey := textutil.MatchKey(title)
	albumKey := textutil.MatchKey(album)

	var best spotify.Track
	var bestScore float64
	for _, candidate := range candidates {
		candidateTitle := textutil.MatchKey(candidate.Name)
		candidateAlbum := textutil.MatchKey(candidate.Album)

		if candidateTitle == titleKey && candidateAlbum == albumKey {
			return candidate, 1, true
		}

		score := 0.7*matchr.JaroWinkler(titleKey, candidateTitle, false) +
			0.3*matchr.JaroWinkler(albumKey, candidateAlbum, false)
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	if bestScore < matchThreshold {
		return spotify.Track{}, bestScore, false
	}
	return best, bestScore, true
}
