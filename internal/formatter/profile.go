// internal/formatter/profile.go
package formatter

import "print-bridge/internal/model"

// PaperProfile carries every width-dependent layout constant, chosen once per job
type PaperProfile struct {
	Width            model.PaperWidth
	CharsPerLine     int
	MaxItemNameChars int
	MaxNoteChars     int
	WrapItemNames    bool
}

var (
	profile58 = PaperProfile{
		Width:            model.PaperWidth58,
		CharsPerLine:     32,
		MaxItemNameChars: 28,
		MaxNoteChars:     28,
		WrapItemNames:    true,
	}
	profile80 = PaperProfile{
		Width:            model.PaperWidth80,
		CharsPerLine:     48,
		MaxItemNameChars: 48,
		MaxNoteChars:     48,
		WrapItemNames:    false,
	}
)

// ProfileFor returns the profile of a paper width; anything but 58 mm is 80 mm
func ProfileFor(width model.PaperWidth) PaperProfile {
	if width == model.PaperWidth58 {
		return profile58
	}
	return profile80
}

// Small reports whether this is the narrow roll
func (p PaperProfile) Small() bool {
	return p.Width == model.PaperWidth58
}
