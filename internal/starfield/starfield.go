// Package starfield produces the static, decorative star backdrop: the
// bright-star catalog plus a deterministic procedural fill spread over a
// sphere far outside the outermost ring.
package starfield

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultCount is the total number of stars in the default field.
const DefaultCount = 900

// DefaultRadius is the shell radius in world units.
const DefaultRadius = 80.0

// Star is one backdrop point.
type Star struct {
	Pos        mgl64.Vec3
	Brightness float64 // 0..1
}

// Config controls field generation.
type Config struct {
	Count  int
	Radius float64
}

// DefaultConfig returns the reference field settings.
func DefaultConfig() Config {
	return Config{Count: DefaultCount, Radius: DefaultRadius}
}

// Generate builds the field. The output depends only on cfg.
func Generate(cfg Config) []Star {
	if cfg.Count <= 0 {
		return nil
	}
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultRadius
	}

	stars := make([]Star, 0, cfg.Count)
	for _, s := range brightStars {
		if len(stars) == cfg.Count {
			return stars
		}
		stars = append(stars, Star{
			Pos:        EquatorialToUnit(s.raDeg, s.decDeg).Mul(cfg.Radius),
			Brightness: MagnitudeBrightness(s.mag),
		})
	}

	// Fibonacci sphere with hashed jitter for the faint fill.
	fill := cfg.Count - len(stars)
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := 0; i < fill; i++ {
		y := 1 - (float64(i)+0.5)/float64(fill)*2
		r := math.Sqrt(1 - y*y)
		theta := golden*float64(i) + (hash01(uint64(i))-0.5)*0.6
		dir := mgl64.Vec3{r * math.Cos(theta), y, r * math.Sin(theta)}
		mag := 3 + hash01(uint64(i)+0x5bd1e995)*3
		stars = append(stars, Star{
			Pos:        dir.Mul(cfg.Radius),
			Brightness: MagnitudeBrightness(mag),
		})
	}
	return stars
}

// EquatorialToUnit converts right ascension and declination (degrees) to a
// unit vector with Y toward the celestial pole.
func EquatorialToUnit(raDeg, decDeg float64) mgl64.Vec3 {
	ra := degToRad(raDeg)
	dec := degToRad(decDeg)
	return mgl64.Vec3{
		math.Cos(dec) * math.Cos(ra),
		math.Sin(dec),
		math.Cos(dec) * math.Sin(ra),
	}
}

// MagnitudeBrightness maps apparent magnitude to 0..1. Brighter stars (lower
// magnitude) get higher values; anything fainter than 6 is invisible.
func MagnitudeBrightness(mag float64) float64 {
	b := 1 - (mag+1.5)/7.5
	if b < 0 {
		return 0
	}
	if b > 1 {
		return 1
	}
	return b
}

func hash01(x uint64) float64 {
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return float64(x>>11) / float64(1<<53)
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
