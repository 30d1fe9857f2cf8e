package model

// DefaultFollowThreshold is how close to the bottom (in rows) the
// viewport must be for auto-follow to stay engaged.
const DefaultFollowThreshold = 32

// shouldFollow decides auto-follow from viewport geometry: true when
// the visible bottom edge is within threshold rows of the content's
// true bottom. Content shorter than the viewport always follows.
func shouldFollow(yOffset, height, totalLines, threshold int) bool {
	if totalLines <= height {
		return true
	}
	distance := totalLines - (yOffset + height)
	return distance <= threshold
}
