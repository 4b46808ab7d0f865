package memory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/smazurov/restream/internal/media"
)

type propKind int

const (
	propBool propKind = iota
	propString
	propInt
	propUint
	propUint64
	propDouble
	propCaps
	propEnum
	propFlags
)

func (k propKind) String() string {
	switch k {
	case propBool:
		return "bool"
	case propString:
		return "string"
	case propInt:
		return "int"
	case propUint:
		return "uint"
	case propUint64:
		return "uint64"
	case propDouble:
		return "float64"
	case propCaps:
		return "media.Caps"
	case propEnum:
		return "enum nick"
	default:
		return "flags nicks"
	}
}

type propSpec struct {
	kind  propKind
	nicks []string
}

func enum(nicks ...string) propSpec  { return propSpec{kind: propEnum, nicks: nicks} }
func flags(nicks ...string) propSpec { return propSpec{kind: propFlags, nicks: nicks} }

// elementProps mirrors the property types GStreamer exposes for each factory.
// Numeric properties need the exact Go type of their GType, enums and flags
// are set by nick.
var elementProps = map[string]map[string]propSpec{
	"videotestsrc": {
		"is-live": {kind: propBool},
		"pattern": enum("smpte", "snow", "black", "white", "red", "green", "blue",
			"checkers-1", "checkers-2", "checkers-4", "checkers-8", "circular", "blink",
			"smpte75", "zone-plate", "gamut", "chroma-zone-plate", "solid-color", "ball",
			"smpte100", "bar", "pinwheel", "spokes", "gradient", "colors", "smpte-rp-219"),
	},
	"v4l2src": {"device": {kind: propString}},
	"audiotestsrc": {
		"is-live": {kind: propBool},
		"freq":    {kind: propDouble},
		"volume":  {kind: propDouble},
		"wave": enum("sine", "square", "saw", "triangle", "silence", "white-noise",
			"pink-noise", "sine-table", "ticks", "gaussian-noise", "red-noise",
			"blue-noise", "violet-noise"),
	},
	"alsasrc":       {"device": {kind: propString}},
	"capsfilter":    {"caps": {kind: propCaps}},
	"videoconvert":  {},
	"videoscale":    {},
	"audioconvert":  {},
	"audioresample": {},
	"queue": {
		"max-size-buffers": {kind: propUint},
		"leaky":            enum("no", "upstream", "downstream"),
	},
	"level": {
		"interval":      {kind: propUint64},
		"post-messages": {kind: propBool},
	},
	"x264enc": {
		"bitrate":      {kind: propUint},
		"key-int-max":  {kind: propUint},
		"tune":         flags("stillimage", "fastdecode", "zerolatency"),
		"speed-preset": enum("None", "ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow", "placebo"),
	},
	"h264parse": {},
	"voaacenc":  {"bitrate": {kind: propInt}},
	"aacparse":  {},
	"appsink": {
		"caps":        {kind: propCaps},
		"max-buffers": {kind: propUint},
		"drop":        {kind: propBool},
		"sync":        {kind: propBool},
	},
	"fakesink": {
		"sync":  {kind: propBool},
		"async": {kind: propBool},
	},
	"rtmpsink":   {"location": {kind: propString}},
	"tee":        {},
	"compositor": {},
	"audiomixer": {},
	"flvmux":     {"streamable": {kind: propBool}},
}

// padProps lists the properties of request pads, by owning factory.
var padProps = map[string]map[string]propSpec{
	"compositor": {
		"xpos":   {kind: propInt},
		"ypos":   {kind: propInt},
		"width":  {kind: propInt},
		"height": {kind: propInt},
		"zorder": {kind: propUint},
		"alpha":  {kind: propDouble},
	},
	"audiomixer": {
		"volume": {kind: propDouble},
		"mute":   {kind: propBool},
	},
}

func checkProperty(table map[string]map[string]propSpec, owner, name string, value any) error {
	if name == "" {
		return fmt.Errorf("%s: empty property name", owner)
	}
	props, ok := table[owner]
	if !ok {
		return fmt.Errorf("%s has no property %q", owner, name)
	}
	spec, ok := props[name]
	if !ok {
		return fmt.Errorf("%s has no property %q", owner, name)
	}
	if !spec.accepts(value) {
		return fmt.Errorf("invalid value %v (%T) for %s property %s, want %s", value, value, owner, name, spec.kind)
	}
	return nil
}

func (s propSpec) accepts(value any) bool {
	switch s.kind {
	case propBool:
		_, ok := value.(bool)
		return ok
	case propString:
		_, ok := value.(string)
		return ok
	case propInt:
		_, ok := value.(int)
		return ok
	case propUint:
		_, ok := value.(uint)
		return ok
	case propUint64:
		_, ok := value.(uint64)
		return ok
	case propDouble:
		_, ok := value.(float64)
		return ok
	case propCaps:
		_, ok := value.(media.Caps)
		return ok
	case propEnum:
		nick, ok := value.(string)
		return ok && slices.Contains(s.nicks, nick)
	case propFlags:
		v, ok := value.(string)
		if !ok || v == "" {
			return false
		}
		for _, nick := range strings.FieldsFunc(v, func(r rune) bool { return r == '+' || r == '|' }) {
			if !slices.Contains(s.nicks, strings.TrimSpace(nick)) {
				return false
			}
		}
		return true
	}
	return false
}
