// internal/escpos/command.go
package escpos

// CommandSet maps every logical printer command to its wire bytes
type CommandSet struct {
	// Basic commands
	INITIALIZE []byte

	// Text formatting
	TEXT_BOLD_ON           []byte
	TEXT_BOLD_OFF          []byte
	PRINT_MODE_TITLE       []byte // double width + emphasized
	PRINT_MODE_RESET       []byte
	TEXT_SIZE_NORMAL       []byte
	TEXT_SIZE_DOUBLE       []byte
	TEXT_SIZE_DOUBLE_WIDTH []byte

	// Text alignment
	ALIGN_LEFT   []byte
	ALIGN_CENTER []byte
	ALIGN_RIGHT  []byte

	// Left margin, sent alongside alignment for firmware that ignores ESC a
	MARGIN_CENTER_ALT []byte
	MARGIN_LEFT_ALT   []byte

	// Character sets
	SELECT_CHARSET_USA      []byte // accents come from the codepage
	SELECT_CODEPAGE_PC437   []byte
	SELECT_CODEPAGE_PC850   []byte
	SELECT_CODEPAGE_PC858   []byte
	SELECT_CODEPAGE_WPC1252 []byte

	// Paper handling
	LINE_FEED []byte

	// Cutting
	CUT_FULL []byte
	CUT_FEED []byte // feed n motion units to the cutter then full cut

	// Cash drawer
	DRAWER_KICK []byte

	// Graphics
	RASTER_IMAGE []byte // + mode, xL xH yL yH, data
}

// ESC_POS_COMMANDS contains the ESC/POS subset used by the bridge
var ESC_POS_COMMANDS = CommandSet{
	// Basic commands
	INITIALIZE: []byte{0x1B, 0x40}, // ESC @

	// Text formatting
	TEXT_BOLD_ON:           []byte{0x1B, 0x45, 0x01}, // ESC E 1
	TEXT_BOLD_OFF:          []byte{0x1B, 0x45, 0x00}, // ESC E 0
	PRINT_MODE_TITLE:       []byte{0x1B, 0x21, 0x28}, // ESC ! 40
	PRINT_MODE_RESET:       []byte{0x1B, 0x21, 0x00}, // ESC ! 0
	TEXT_SIZE_NORMAL:       []byte{0x1D, 0x21, 0x00}, // GS ! 0
	TEXT_SIZE_DOUBLE:       []byte{0x1D, 0x21, 0x30}, // GS ! 48
	TEXT_SIZE_DOUBLE_WIDTH: []byte{0x1D, 0x21, 0x20}, // GS ! 32

	// Text alignment
	ALIGN_LEFT:   []byte{0x1B, 0x61, 0x00}, // ESC a 0
	ALIGN_CENTER: []byte{0x1B, 0x61, 0x01}, // ESC a 1
	ALIGN_RIGHT:  []byte{0x1B, 0x61, 0x02}, // ESC a 2

	MARGIN_CENTER_ALT: []byte{0x1D, 0x4C, 0x01, 0x00}, // GS L 1 0
	MARGIN_LEFT_ALT:   []byte{0x1D, 0x4C, 0x00, 0x00}, // GS L 0 0

	// Character sets
	SELECT_CHARSET_USA:      []byte{0x1B, 0x52, 0x00}, // ESC R 0
	SELECT_CODEPAGE_PC437:   []byte{0x1B, 0x74, 0x00}, // ESC t 0
	SELECT_CODEPAGE_PC850:   []byte{0x1B, 0x74, 0x02}, // ESC t 2
	SELECT_CODEPAGE_PC858:   []byte{0x1B, 0x74, 0x13}, // ESC t 19
	SELECT_CODEPAGE_WPC1252: []byte{0x1B, 0x74, 0x10}, // ESC t 16

	// Paper handling
	LINE_FEED: []byte{0x0A}, // LF

	// Cutting
	CUT_FULL: []byte{0x1D, 0x56, 0x00},       // GS V 0
	CUT_FEED: []byte{0x1D, 0x56, 0x41, 0x03}, // GS V A 3

	// Cash drawer
	DRAWER_KICK: []byte{0x1B, 0x70, 0x00, 0x19, 0xFA}, // ESC p 0 25 250

	// Graphics
	RASTER_IMAGE: []byte{0x1D, 0x76, 0x30}, // GS v 0
}
