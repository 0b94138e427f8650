package semantic

import "strings"

// NamespaceSeparator joins qualified name segments.
const NamespaceSeparator = `\`

// QualifiedName accumulates the segments of a namespaced identifier.
//
// Segments are stored in the order the grammar recognizes them, which is
// the reverse of the order they are written: for `\First\Child\Foo` the
// token source hands over "Foo", "Child", "First" and finally an empty
// segment for the leading separator. Render replays them backwards.
type QualifiedName struct {
	segments []string
	comment  string
}

// Clear resets the name to empty.
func (q *QualifiedName) Clear() {
	q.segments = q.segments[:0]
	q.comment = ""
}

// AddSegment appends one segment.
func (q *QualifiedName) AddSegment(text string) {
	q.segments = append(q.segments, text)
}

// GrabFirstSegmentAndComment appends the value's lexeme as a segment and
// keeps the doc comment attached to it.
func (q *QualifiedName) GrabFirstSegmentAndComment(v SemanticValue) {
	q.segments = append(q.segments, v.Lexeme)
	q.comment = v.Comment
}

// Comment returns the doc comment captured by GrabFirstSegmentAndComment.
func (q QualifiedName) Comment() string {
	return q.comment
}

// IsEmpty reports whether no segment was added.
func (q QualifiedName) IsEmpty() bool {
	return len(q.segments) == 0
}

// Render returns the name as written in source.
func (q QualifiedName) Render() string {
	if len(q.segments) == 0 {
		return ""
	}
	var b strings.Builder
	for i := len(q.segments) - 1; i >= 0; i-- {
		b.WriteString(q.segments[i])
		if i > 0 {
			b.WriteString(NamespaceSeparator)
		}
	}
	return b.String()
}

// Clone returns an independent copy.
func (q QualifiedName) Clone() QualifiedName {
	c := QualifiedName{comment: q.comment}
	if len(q.segments) > 0 {
		c.segments = append([]string(nil), q.segments...)
	}
	return c
}

// ParseQualifiedName builds a QualifiedName from its rendered form.
func ParseQualifiedName(name string) QualifiedName {
	var q QualifiedName
	if name == "" {
		return q
	}
	parts := strings.Split(name, NamespaceSeparator)
	for i := len(parts) - 1; i >= 0; i-- {
		q.AddSegment(parts[i])
	}
	return q
}
