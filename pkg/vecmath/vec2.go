// Package vecmath provides the small vector value types stored in mesh and
// scene records. They are plain values; the codecs read and write them
// component by component.
package vecmath

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float32
}
