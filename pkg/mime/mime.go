// Package mime sorts clipboard representation names into coarse kinds for
// logs and notifications.
package mime

import (
	"strings"
)

type Type int32

const (
	TypeUnknown Type = iota - 1

	TypeText
	TypeImage
	TypePath

	TypeAudio
	TypeVideo
	TypeBinary
)

func (t Type) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeImage:
		return "image"
	case TypePath:
		return "path"
	case TypeAudio:
		return "audio"
	case TypeVideo:
		return "video"
	case TypeBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// names that do not follow the type/subtype form, mostly X11 atoms bridged
// by Xwayland
var known = map[string]Type{
	"utf8_string":                  TypeText,
	"text":                         TypeText,
	"string":                       TypeText,
	"compound_text":                TypeText,
	"text/uri-list":                TypePath,
	"x-special/gnome-copied-files": TypePath,
}

func normalize(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// Classify maps a MIME type or selection target name to its kind.
func Classify(ct string) Type {
	ct = normalize(ct)

	if v, ok := known[ct]; ok {
		return v
	}

	switch {
	case strings.HasPrefix(ct, "image/"):
		return TypeImage
	case strings.HasPrefix(ct, "text/"):
		return TypeText
	case strings.HasPrefix(ct, "video/"):
		return TypeVideo
	case strings.HasPrefix(ct, "audio/"):
		return TypeAudio
	case ct == "":
		return TypeUnknown
	default:
		return TypeBinary
	}
}

// Kinds lists the distinct kinds of mimes in first-seen order.
func Kinds(mimes []string) []string {
	var (
		out  []string
		seen = make(map[Type]bool, len(mimes))
	)
	for _, m := range mimes {
		t := Classify(m)
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t.String())
	}
	return out
}
