package cache

import "fmt"

// EpisodeExercisesKey caches the stored exercise rows of one episode at a
// given version. A sync changes the version, so rows written under an older
// one are never read again.
func EpisodeExercisesKey(episodeID uint, version string) string {
	return fmt.Sprintf("exercises:episode:%d:%s", episodeID, version)
}

// EpisodeExercisesPattern matches every cached version of one episode.
func EpisodeExercisesPattern(episodeID uint) string {
	return fmt.Sprintf("exercises:episode:%d:*", episodeID)
}
