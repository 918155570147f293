package vecmath

// Vec4 is a 4D vector. Tangents and bitangents carry handedness in W.
type Vec4 struct {
	X, Y, Z, W float32
}

// Color is a linear RGBA color with components nominally in [0, 1].
type Color struct {
	R, G, B, A float32
}

// White is the default vertex color.
var White = Color{1, 1, 1, 1}
