// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Window host, metrics dump, JSON orbit configs, file and data icons
// 0.2.0 - Procedural central body shader, glow sprites, starfield
// 0.1.0 - Initial release: terminal orrery, orbit camera, headless snapshots
