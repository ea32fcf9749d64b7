package models

import (
	"fmt"
	"math"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

// TargetPath names the node property an animation channel drives.
type TargetPath int

const (
	PathTranslation TargetPath = iota
	PathRotation
	PathScale
)

// Interpolation selects how values between keyframes are computed.
type Interpolation int

const (
	InterpLinear Interpolation = iota
	InterpStep
)

// Channel animates one property of one node from a keyframe track.
// Vecs holds translation/scale keys, Rots holds rotation keys; exactly
// one of the two is populated depending on Path.
type Channel struct {
	Node   int
	Path   TargetPath
	Interp Interpolation
	Times  []float64
	Vecs   []math3d.Vec3
	Rots   []math3d.Quat
}

// Clip is a named set of channels that play together.
type Clip struct {
	Name     string
	Channels []Channel
}

// Duration returns the end time of the latest keyframe in the clip.
func (c *Clip) Duration() float64 {
	var d float64
	for i := range c.Channels {
		if times := c.Channels[i].Times; len(times) > 0 {
			d = math.Max(d, times[len(times)-1])
		}
	}
	return d
}

// span locates the keyframe pair bracketing time t and the
// interpolation fraction between them. Times outside the track clamp
// to the first or last key.
func (c *Channel) span(t float64) (i, j int, frac float64) {
	times := c.Times
	n := len(times)
	if n == 0 {
		return 0, 0, 0
	}
	if t <= times[0] {
		return 0, 0, 0
	}
	if t >= times[n-1] {
		return n - 1, n - 1, 0
	}

	// Binary search for the segment containing t
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if times[mid] <= t {
			lo = mid
		} else {
			hi = mid
		}
	}

	span := times[hi] - times[lo]
	if span <= 0 {
		return lo, lo, 0
	}
	if c.Interp == InterpStep {
		return lo, lo, 0
	}
	return lo, hi, (t - times[lo]) / span
}

// SampleVec evaluates a translation or scale channel at time t.
func (c *Channel) SampleVec(t float64) math3d.Vec3 {
	i, j, frac := c.span(t)
	if i == j || frac == 0 {
		return c.Vecs[i]
	}
	return c.Vecs[i].Lerp(c.Vecs[j], frac)
}

// SampleRot evaluates a rotation channel at time t.
func (c *Channel) SampleRot(t float64) math3d.Quat {
	i, j, frac := c.span(t)
	if i == j || frac == 0 {
		return c.Rots[i]
	}
	return c.Rots[i].Slerp(c.Rots[j], frac)
}

// Mixer plays one clip of a model at a time, maintaining a working
// pose that the sampled keyframes are written into each update.
type Mixer struct {
	model *Model
	pose  []NodeTRS

	clip    int // index into model.Clips, -1 when the model has no clips
	time    float64
	playing bool

	Speed float64
	Loop  bool
}

// NewMixer creates a mixer over the model's clips. If the model embeds
// at least one clip, the first is selected and starts playing, looped.
func NewMixer(m *Model) *Mixer {
	x := &Mixer{
		model: m,
		pose:  m.RestPose(),
		clip:  -1,
		Speed: 1,
		Loop:  true,
	}
	if len(m.Clips) > 0 {
		x.clip = 0
		x.playing = true
		x.apply()
	}
	return x
}

// Clip returns the active clip, or nil when the model has none.
func (x *Mixer) Clip() *Clip {
	if x.clip < 0 {
		return nil
	}
	return x.model.Clips[x.clip]
}

// ClipIndex returns the index of the active clip (-1 when none).
func (x *Mixer) ClipIndex() int {
	return x.clip
}

// SetClip switches playback to clip i, rewound to its start.
func (x *Mixer) SetClip(i int) error {
	if i < 0 || i >= len(x.model.Clips) {
		return fmt.Errorf("clip index %d out of range (model has %d)", i, len(x.model.Clips))
	}
	x.clip = i
	x.time = 0
	x.apply()
	return nil
}

// NextClip cycles to the following clip. A no-op for clipless models.
func (x *Mixer) NextClip() {
	if len(x.model.Clips) < 2 {
		return
	}
	_ = x.SetClip((x.clip + 1) % len(x.model.Clips))
}

// Playing reports whether playback is advancing.
func (x *Mixer) Playing() bool {
	return x.playing
}

// TogglePlay pauses or resumes playback. A finished non-looping clip
// restarts from the beginning.
func (x *Mixer) TogglePlay() {
	if x.clip < 0 {
		return
	}
	if !x.playing && !x.Loop && x.time >= x.Clip().Duration() {
		x.time = 0
	}
	x.playing = !x.playing
}

// Time returns the current playback time in seconds.
func (x *Mixer) Time() float64 {
	return x.time
}

// Rewind resets playback to the start of the active clip.
func (x *Mixer) Rewind() {
	x.time = 0
	x.apply()
}

// Update advances playback by dt seconds and refreshes the pose.
// Looping wraps the time; otherwise playback stops at the clip end.
func (x *Mixer) Update(dt float64) {
	if x.clip < 0 || !x.playing {
		return
	}

	dur := x.Clip().Duration()
	x.time += dt * x.Speed

	switch {
	case dur <= 0:
		x.time = 0
	case x.Loop:
		x.time = math.Mod(x.time, dur)
		if x.time < 0 {
			x.time += dur
		}
	case x.time >= dur:
		x.time = dur
		x.playing = false
	case x.time < 0:
		x.time = 0
	}

	x.apply()
}

// apply samples the active clip at the current time into the pose.
func (x *Mixer) apply() {
	clip := x.Clip()
	if clip == nil {
		return
	}
	for i := range clip.Channels {
		ch := &clip.Channels[i]
		if ch.Node < 0 || ch.Node >= len(x.pose) || len(ch.Times) == 0 {
			continue
		}
		switch ch.Path {
		case PathTranslation:
			x.pose[ch.Node].Translation = ch.SampleVec(x.time)
		case PathRotation:
			x.pose[ch.Node].Rotation = ch.SampleRot(x.time)
		case PathScale:
			x.pose[ch.Node].Scale = ch.SampleVec(x.time)
		}
	}
}

// Pose returns the mixer's working pose.
func (x *Mixer) Pose() []NodeTRS {
	return x.pose
}

// GlobalTransforms resolves world transforms for the current pose,
// reusing dst across frames.
func (x *Mixer) GlobalTransforms(dst []math3d.Mat4) []math3d.Mat4 {
	return x.model.GlobalTransforms(x.pose, dst)
}
