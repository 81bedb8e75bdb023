package math

// Color3 is an RGB color with float components.
type Color3 struct {
	R, G, B float32
}

// Color4 is an RGBA color with float components.
type Color4 struct {
	R, G, B, A float32
}

// RGB drops the alpha channel.
func (c Color4) RGB() Color3 {
	return Color3{c.R, c.G, c.B}
}
