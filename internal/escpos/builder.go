// internal/escpos/builder.go
package escpos

import (
	"bytes"
	"strings"
)

// Alignment is the justification state of the print head
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Builder is an append-only command stream. Formatters compose documents
// through its named operations and never write command bytes themselves.
// A Builder is owned by a single goroutine.
type Builder struct {
	buf      bytes.Buffer
	cmds     *CommandSet
	enc      *TextEncoder
	align    Alignment
	emphasis bool
}

// NewBuilder creates a builder over the default ESC/POS command table
func NewBuilder(enc *TextEncoder) *Builder {
	return NewBuilderWithCommands(enc, &ESC_POS_COMMANDS)
}

// NewBuilderWithCommands creates a builder over an alternative command dialect
func NewBuilderWithCommands(enc *TextEncoder, cmds *CommandSet) *Builder {
	if enc == nil {
		enc = NewTextEncoder(nil)
	}
	if cmds == nil {
		cmds = &ESC_POS_COMMANDS
	}
	return &Builder{cmds: cmds, enc: enc}
}

// Init resets the printer; alignment returns to left and emphasis to off
func (b *Builder) Init() *Builder {
	b.buf.Write(b.cmds.INITIALIZE)
	b.align = AlignLeft
	b.emphasis = false
	return b
}

// SelectCodepage emits the charset and codepage preamble of the encoder
func (b *Builder) SelectCodepage() *Builder {
	b.buf.Write(b.enc.Preamble())
	return b
}

// SetAlign emits an alignment command only when it differs from the current one
func (b *Builder) SetAlign(a Alignment) *Builder {
	if a == b.align {
		return b
	}
	return b.forceAlign(a)
}

func (b *Builder) forceAlign(a Alignment) *Builder {
	switch a {
	case AlignCenter:
		b.buf.Write(b.cmds.ALIGN_CENTER)
	case AlignRight:
		b.buf.Write(b.cmds.ALIGN_RIGHT)
	default:
		a = AlignLeft
		b.buf.Write(b.cmds.ALIGN_LEFT)
	}
	b.align = a
	return b
}

// CenterBlock always emits center alignment plus the margin fallback
func (b *Builder) CenterBlock() *Builder {
	b.forceAlign(AlignCenter)
	b.buf.Write(b.cmds.MARGIN_CENTER_ALT)
	return b
}

// LeftBlock always emits left alignment plus the margin fallback
func (b *Builder) LeftBlock() *Builder {
	b.forceAlign(AlignLeft)
	b.buf.Write(b.cmds.MARGIN_LEFT_ALT)
	return b
}

// Align returns the current alignment state
func (b *Builder) Align() Alignment {
	return b.align
}

// SetEmphasis toggles bold printing
func (b *Builder) SetEmphasis(on bool) *Builder {
	if on {
		b.buf.Write(b.cmds.TEXT_BOLD_ON)
	} else {
		b.buf.Write(b.cmds.TEXT_BOLD_OFF)
	}
	b.emphasis = on
	return b
}

// Emphasis reports whether bold is currently on
func (b *Builder) Emphasis() bool {
	return b.emphasis
}

// SetDoubleWidth toggles double-width characters
func (b *Builder) SetDoubleWidth(on bool) *Builder {
	if on {
		b.buf.Write(b.cmds.TEXT_SIZE_DOUBLE_WIDTH)
	} else {
		b.buf.Write(b.cmds.TEXT_SIZE_NORMAL)
	}
	return b
}

// SetTitleMode toggles the combined double-width emphasized print mode.
// Turning it off resets every print mode bit, emphasis included.
func (b *Builder) SetTitleMode(on bool) *Builder {
	if on {
		b.buf.Write(b.cmds.PRINT_MODE_TITLE)
		b.emphasis = true
	} else {
		b.buf.Write(b.cmds.PRINT_MODE_RESET)
		b.emphasis = false
	}
	return b
}

// LineFeed emits a single line feed
func (b *Builder) LineFeed() *Builder {
	b.buf.Write(b.cmds.LINE_FEED)
	return b
}

// Feed emits n line feeds
func (b *Builder) Feed(n int) *Builder {
	for i := 0; i < n; i++ {
		b.buf.Write(b.cmds.LINE_FEED)
	}
	return b
}

// Cut performs a full cut at the current position
func (b *Builder) Cut() *Builder {
	b.buf.Write(b.cmds.CUT_FULL)
	return b
}

// FeedCut feeds past the cutter then performs a full cut
func (b *Builder) FeedCut() *Builder {
	b.buf.Write(b.cmds.CUT_FEED)
	return b
}

// KickCashDrawer pulses the drawer kick-out connector
func (b *Builder) KickCashDrawer() *Builder {
	b.buf.Write(b.cmds.DRAWER_KICK)
	return b
}

// Text appends text transcoded to the selected codepage
func (b *Builder) Text(s string) *Builder {
	if s == "" {
		return b
	}
	b.buf.Write(b.enc.Encode(s))
	return b
}

// Line appends text followed by a line feed
func (b *Builder) Line(s string) *Builder {
	return b.Text(s).LineFeed()
}

// EmphasizedLine prints a single bold line and restores normal weight
func (b *Builder) EmphasizedLine(s string) *Builder {
	return b.SetEmphasis(true).Line(s).SetEmphasis(false)
}

// Separator prints a dashed rule of the given width
func (b *Builder) Separator(width int) *Builder {
	if width <= 0 {
		return b
	}
	return b.Line(strings.Repeat("-", width))
}

// AppendText appends already-encoded text bytes
func (b *Builder) AppendText(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

// AppendRaw appends a pre-built command block, such as a raster frame
func (b *Builder) AppendRaw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

// Len returns the number of bytes built so far
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Bytes returns a copy of the stream
func (b *Builder) Bytes() []byte {
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	return out
}
