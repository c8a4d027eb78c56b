package schema

import (
	"fmt"
	"strings"

	"github.com/danmuck/ibctl/internal/protocol"
)

// TagValue is one named option.
type TagValue struct {
	Tag   string
	Value string
}

// Options is an option list supplied either as structured tags or as a
// pre-encoded "tag=value;" string. Both shapes encode identically.
type Options struct {
	tags  []TagValue
	raw   string
	isRaw bool
}

func OptionsFromTags(tags ...TagValue) Options {
	return Options{tags: append([]TagValue(nil), tags...)}
}

func OptionsFromString(raw string) Options {
	return Options{raw: raw, isRaw: true}
}

func (o Options) IsRaw() bool { return o.isRaw }

// Value returns the option list as a field value. Raw strings are
// canonicalized by the field's transform during Build.
func (o Options) Value() protocol.Value {
	if o.isRaw {
		return protocol.String(o.raw)
	}
	return protocol.String(EncodeTagValues(o.tags))
}

// EncodeTagValues renders tags as "tag=value;" pairs.
func EncodeTagValues(tags []TagValue) string {
	var b strings.Builder
	for _, t := range tags {
		b.WriteString(t.Tag)
		b.WriteByte('=')
		b.WriteString(t.Value)
		b.WriteByte(';')
	}
	return b.String()
}

// ParseTagValues parses "tag=value;" pairs. Empty segments are skipped.
func ParseTagValues(raw string) ([]TagValue, error) {
	var out []TagValue
	for _, seg := range strings.Split(raw, ";") {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		tag, value, ok := strings.Cut(seg, "=")
		tag = strings.TrimSpace(tag)
		if !ok || tag == "" {
			return nil, fmt.Errorf("malformed option %q", seg)
		}
		out = append(out, TagValue{Tag: tag, Value: value})
	}
	return out, nil
}

func canonicalOptions(v protocol.Value) (protocol.Value, error) {
	if v.Kind() != protocol.KindString {
		return v, nil
	}
	tags, err := ParseTagValues(v.Str())
	if err != nil {
		return v, err
	}
	return protocol.String(EncodeTagValues(tags)), nil
}

// TagList is a comma separated tag list supplied as tags or as one string.
type TagList struct {
	tags  []string
	raw   string
	isRaw bool
}

func TagListOf(tags ...string) TagList {
	return TagList{tags: append([]string(nil), tags...)}
}

func TagListFromString(raw string) TagList {
	return TagList{raw: raw, isRaw: true}
}

func (l TagList) Value() protocol.Value {
	if l.isRaw {
		return protocol.String(l.raw)
	}
	return protocol.String(strings.Join(l.tags, ","))
}

func canonicalTagList(v protocol.Value) (protocol.Value, error) {
	if v.Kind() != protocol.KindString {
		return v, nil
	}
	parts := strings.Split(v.Str(), ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return protocol.String(strings.Join(out, ",")), nil
}

// tagValueGroup encodes a count followed by tag/value pairs.
func tagValueGroup(tags []TagValue) protocol.Value {
	vs := make([]protocol.Value, 0, 2*len(tags))
	for _, t := range tags {
		vs = append(vs, protocol.String(t.Tag), protocol.String(t.Value))
	}
	return protocol.Counted(len(tags), vs...)
}

// countedOptions rewrites an option string into a count followed by its
// canonical text, the shape the option analytics requests expect.
func countedOptions(v protocol.Value) (protocol.Value, error) {
	if v.Kind() != protocol.KindString {
		return v, nil
	}
	tags, err := ParseTagValues(v.Str())
	if err != nil {
		return v, err
	}
	return protocol.Group(protocol.Int(int64(len(tags))), protocol.String(EncodeTagValues(tags))), nil
}
