package habit

import "fmt"

// PlaceholderURL returns a placeholder evidence image URL of the given size.
func PlaceholderURL(width, height int) string {
	return fmt.Sprintf("https://placehold.co/%dx%d/EEE/31343C?text=Evidence", width, height)
}
