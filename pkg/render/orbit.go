package render

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

// maxOrbitPitch keeps the camera off the poles where yaw degenerates.
const maxOrbitPitch = math.Pi/2 - 0.05

// OrbitControls moves a camera on a sphere around a target point.
// Pointer drags feed angular velocity which decays through a spring,
// so the orbit keeps gliding briefly after the pointer stops. Zoom
// is spring-animated toward its target distance.
type OrbitControls struct {
	Target math3d.Vec3

	Yaw      float64 // Horizontal angle in radians
	Pitch    float64 // Vertical angle in radians, clamped near the poles
	Distance float64 // Current distance from target

	MinDistance float64
	MaxDistance float64

	yawVel     float64
	yawAccel   float64
	pitchVel   float64
	pitchAccel float64

	targetDistance float64
	distVel        float64

	spring harmonica.Spring

	homeYaw, homePitch, homeDistance float64
}

// NewOrbitControls creates orbit controls tuned for the given frame rate.
func NewOrbitControls(fps int) *OrbitControls {
	return &OrbitControls{
		Distance:       5,
		targetDistance: 5,
		MinDistance:    0.5,
		MaxDistance:    50,
		homeDistance:   5,
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Rotate adds angular velocity to the orbit (radians per frame).
func (o *OrbitControls) Rotate(dYaw, dPitch float64) {
	o.yawVel += dYaw
	o.pitchVel += dPitch
}

// Zoom moves the target distance by the given number of steps.
// Positive steps zoom in. Each step scales the distance by 10%.
func (o *OrbitControls) Zoom(steps float64) {
	o.targetDistance = clampDistance(o.targetDistance*math.Pow(0.9, steps), o.MinDistance, o.MaxDistance)
}

// SetDistance snaps both the current and target distance.
func (o *OrbitControls) SetDistance(d float64) {
	d = clampDistance(d, o.MinDistance, o.MaxDistance)
	o.Distance = d
	o.targetDistance = d
	o.distVel = 0
}

// SetAngles snaps the orbit to the given yaw and pitch.
func (o *OrbitControls) SetAngles(yaw, pitch float64) {
	o.Yaw = yaw
	o.Pitch = clampPitch(pitch)
	o.yawVel, o.yawAccel = 0, 0
	o.pitchVel, o.pitchAccel = 0, 0
}

// SetHome records the current pose as the reset position.
func (o *OrbitControls) SetHome() {
	o.homeYaw = o.Yaw
	o.homePitch = o.Pitch
	o.homeDistance = o.targetDistance
}

// Reset returns the orbit to its home pose.
func (o *OrbitControls) Reset() {
	o.SetAngles(o.homeYaw, o.homePitch)
	o.SetDistance(o.homeDistance)
}

// Update advances the orbit by one frame: velocity moves the angles,
// then the spring decays velocity toward zero and eases the distance
// toward its target.
func (o *OrbitControls) Update() {
	o.Yaw += o.yawVel
	o.Pitch += o.pitchVel
	if clamped := clampPitch(o.Pitch); clamped != o.Pitch {
		o.Pitch = clamped
		o.pitchVel = 0
	}

	o.yawVel, o.yawAccel = o.spring.Update(o.yawVel, o.yawAccel, 0)
	o.pitchVel, o.pitchAccel = o.spring.Update(o.pitchVel, o.pitchAccel, 0)
	o.Distance, o.distVel = o.spring.Update(o.Distance, o.distVel, o.targetDistance)
}

// Apply positions the camera on the orbit sphere looking at the target.
func (o *OrbitControls) Apply(cam *Camera) {
	offset := math3d.V3(
		math.Cos(o.Pitch)*math.Sin(o.Yaw),
		math.Sin(o.Pitch),
		math.Cos(o.Pitch)*math.Cos(o.Yaw),
	).Scale(o.Distance)

	cam.SetPosition(o.Target.Add(offset))
	cam.LookAt(o.Target)
}

func clampPitch(pitch float64) float64 {
	if pitch > maxOrbitPitch {
		return maxOrbitPitch
	}
	if pitch < -maxOrbitPitch {
		return -maxOrbitPitch
	}
	return pitch
}

func clampDistance(d, lo, hi float64) float64 {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
