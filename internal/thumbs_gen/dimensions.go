package thumbsgen

// FitDimensions scales width and height uniformly so the longest side
// equals maxSize. Dimensions already within maxSize are returned as is.
// The shorter side is floored and never drops below 1px.
func FitDimensions(width, height, maxSize int) (int, int) {
	longest := max(width, height)
	if maxSize <= 0 || longest <= maxSize {
		return width, height
	}

	// Integer math keeps the longest side exactly at maxSize
	newWidth := max(width*maxSize/longest, 1)
	newHeight := max(height*maxSize/longest, 1)
	return newWidth, newHeight
}
