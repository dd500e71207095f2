package social

// Palette names the display colours of groups, indexed by ColorIndex.
// Offers beyond the seventh ladder step share the last colour.
var Palette = []string{"red", "orange", "yellow", "magenta", "green", "blue", "cyan", "black"}

// ColorIndex maps a group's mean offer onto Palette using the offer ladder:
// the first ladder step the mean does not exceed picks the colour.
func ColorIndex(meanOffer float64, ladder []float64) int {
	for i, v := range ladder {
		if i >= len(Palette)-1 {
			break
		}
		if meanOffer <= v {
			return i
		}
	}
	return len(Palette) - 1
}
