package mecode

import "math"

// crossSectionArea is the area of the capsule-shaped cross section of a
// squashed filament line: a rectangle plus two half circles.
func (g *G) crossSectionArea() float64 {
	h := g.opts.LayerHeight
	return h*(g.opts.ExtrusionWidth-h) + math.Pi*(h/2)*(h/2)
}

// filamentLength converts a deposited line length into the length of
// filament to push through the nozzle.
func (g *G) filamentLength(lineLength float64) float64 {
	area := g.crossSectionArea()
	volume := lineLength * area
	d := g.opts.FilamentDiameter
	return 4 * volume / (math.Pi * d * d) * g.opts.ExtrusionMultiplier
}

// moveExtrusion computes the E word for a linear move to (x, y) in the
// current mode. In absolute mode the extruder position accumulates.
func (g *G) moveExtrusion(x, y float64) float64 {
	var dx, dy float64
	if g.relative {
		dx, dy = x, y
	} else {
		dx = x - g.pos["X"]
		dy = y - g.pos["Y"]
	}
	filament := g.filamentLength(math.Hypot(dx, dy))
	if g.relative {
		return filament
	}
	return g.extra["E"] + filament
}

// arcExtrusion computes the E word for an arc with the given chord length
// and radius. Radii here always select the shorter segment.
func (g *G) arcExtrusion(chord, radius float64) float64 {
	arcAngle := 2 * math.Asin(chord/(2*radius))
	filament := g.filamentLength(arcAngle * radius)
	if g.relative {
		return filament
	}
	return g.extra["E"] + filament
}
