package sandbox

import (
	"math"

	"github.com/jakecoffman/cp"
)

const (
	collisionTypeCreature cp.CollisionType = iota + 1
)

const (
	creatureRadius = 0.35
	creatureMass   = 1.0
	// Cells per turn.
	creatureSpeed = 0.6
	arriveRadius  = 1.5
)

// physics owns the Chipmunk space the creatures move in. The map has no
// gravity; velocities are steered toward each creature's destination.
type physics struct {
	space *cp.Space
}

func newPhysics() *physics {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{})
	return &physics{space: space}
}

func (ph *physics) addBody(x, y float64) *cp.Body {
	moment := cp.MomentForCircle(creatureMass, 0, creatureRadius, cp.Vector{})
	body := cp.NewBody(creatureMass, moment)
	body.SetPosition(cp.Vector{X: x, Y: y})

	shape := cp.NewCircle(body, creatureRadius, cp.Vector{})
	shape.SetFriction(0)
	shape.SetElasticity(0)
	shape.SetCollisionType(collisionTypeCreature)

	ph.space.AddBody(body)
	ph.space.AddShape(shape)
	return body
}

func (ph *physics) removeBody(body *cp.Body) {
	if body == nil {
		return
	}
	var shapes []*cp.Shape
	body.EachShape(func(s *cp.Shape) {
		shapes = append(shapes, s)
	})
	for _, s := range shapes {
		ph.space.RemoveShape(s)
	}
	ph.space.RemoveBody(body)
}

// steer sets the body's velocity toward dest and reports whether it arrived.
func steer(body *cp.Body, dest cp.Vector) bool {
	pos := body.Position()
	dx, dy := dest.X-pos.X, dest.Y-pos.Y
	dist := math.Hypot(dx, dy)
	if dist <= arriveRadius {
		body.SetVelocityVector(cp.Vector{})
		return true
	}
	body.SetVelocity(dx/dist*creatureSpeed, dy/dist*creatureSpeed)
	return false
}

func (ph *physics) step() {
	ph.space.Step(1.0)
}
