package render

const (
	colorPrefix = "\x1b[01;"
	colorReset  = "\x1b[0m"
)

// field names used for decoration
const (
	FieldPid   = "pid"
	FieldUser  = "user"
	FieldComm  = "comm"
	FieldExtra = "extra"
)

// Theme holds the glyphs drawing the tree and the optional field colors.
type Theme struct {
	Selected  string
	Child     string
	NotChild  string
	LastChild string
	colors    map[string]string
}

// NewTheme returns the box drawing theme, or its ascii fallback.
func NewTheme(ascii, color bool) Theme {
	t := Theme{
		Selected:  "►",
		Child:     "├─",
		NotChild:  "│ ",
		LastChild: "└─",
	}
	if ascii {
		t.Selected = ">"
		t.Child = "|_"
		t.NotChild = "| "
		t.LastChild = `\_`
	}
	if color {
		t.colors = map[string]string{
			FieldPid:   "34",
			FieldUser:  "33",
			FieldComm:  "32",
			FieldExtra: "36",
		}
	}
	return t
}

// Colorize decorates value when the theme has a color for field.
func (t Theme) Colorize(field, value string) string {
	code, ok := t.colors[field]
	if !ok {
		return value
	}
	return colorPrefix + code + "m" + value + colorReset
}
