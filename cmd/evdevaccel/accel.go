package main

import "math"

// Curve holds the acceleration tuning parameters. It is built once from the
// config file and passed by value; nothing mutates it while running.
//
// All arithmetic on a Curve is float32 so that the remainder carried between
// frames drifts exactly like a single-precision implementation would.
type Curve struct {
	Sensitivity float32 // Base sensitivity; must be > 0 (divisor)
	Accel       float32 // Sensitivity gained per unit of rate (counts/ms)
	PreScale    float32 // Applied to raw counts before the velocity is measured
	PostScale   float32 // Applied after acceleration, before the carry is added
}

// carryState is the sub-pixel remainder not yet emitted, per axis.
// After every accelerate call both values lie in [0, 1).
type carryState struct {
	X float32
	Y float32
}

// accelerate maps one frame of summed relative motion to integer output.
//
// dtMS is the clamped frame duration in milliseconds. The fractional part of
// the result is kept in carry and added to the next frame, so the cumulative
// output never lags the cumulative accelerated motion by a pixel or more.
func accelerate(sumX, sumY int32, carry *carryState, c Curve, dtMS float32) (int32, int32) {
	x, y := scaleMotion(sumX, sumY, c, dtMS)
	x += carry.X
	y += carry.Y

	outX, remX := floorCarry(x)
	outY, remY := floorCarry(y)
	carry.X = remX
	carry.Y = remY

	return outX, outY
}

// scaleMotion applies pre-scale, the velocity-dependent gain and post-scale.
// With Accel == 0 the gain is exactly 1.
//
// Explicit float32 conversions after each multiply keep the compiler from
// fusing operations into FMA instructions, which would change rounding.
func scaleMotion(sumX, sumY int32, c Curve, dtMS float32) (float32, float32) {
	x := float32(float32(sumX) * c.PreScale)
	y := float32(float32(sumY) * c.PreScale)

	velocity := sqrt32(float32(x*x) + float32(y*y))
	rate := velocity / dtMS

	sens := c.Sensitivity
	if rate > 0 {
		sens += float32(rate * c.Accel)
	}
	factor := sens / c.Sensitivity

	x = float32(x * factor)
	y = float32(y * factor)
	x = float32(x * c.PostScale)
	y = float32(y * c.PostScale)
	return x, y
}

// floorCarry splits v into floor(v) and the remainder v - floor(v).
//
// For tiny negative v the float32 subtraction can round the remainder up to
// exactly 1.0; that unit is moved into the integer part so the remainder stays
// below one. A bit-exact float32 port would emit -1 and carry 1.0 here; this
// emits 0 and carries 0, which is the same cumulative motion.
//
// Values beyond the int32 range saturate at the nearest limit and NaN maps to
// zero. Neither leaves a remainder.
func floorCarry(v float32) (int32, float32) {
	if math.IsNaN(float64(v)) {
		return 0, 0
	}
	f := math.Floor(float64(v))
	rem := v - float32(f)
	if rem >= 1 {
		f++
		rem = 0
	}
	if math.IsInf(float64(v), 0) {
		rem = 0
	}
	return saturateInt32(f), rem
}

func saturateInt32(f float64) int32 {
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}

// sqrt32 is a correctly rounded single-precision square root. Rounding the
// double-precision result to float32 is exact for sqrt.
func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
