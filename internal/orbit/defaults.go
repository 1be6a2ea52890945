package orbit

// defaultSpecs mirrors the tech-stack rings: four categories, inner to outer.
var defaultSpecs = []CategorySpec{
	{
		Name:       "Languages",
		Color:      "#2dd4bf",
		RingRadius: 4,
		OrbitTilt:  0.06,
		Items: []ItemSpec{
			{Name: "C"}, {Name: "C++"}, {Name: "Java"}, {Name: "JavaScript"},
			{Name: "PHP"}, {Name: "Python"}, {Name: "R"}, {Name: "PowerShell"},
		},
	},
	{
		Name:       "Databases",
		Color:      "#38bdf8",
		RingRadius: 7,
		OrbitTilt:  -0.09,
		Items: []ItemSpec{
			{Name: "MongoDB"}, {Name: "MySQL"}, {Name: "PostgreSQL"}, {Name: "SQLite"},
		},
	},
	{
		Name:       "Frameworks",
		Color:      "#a78bfa",
		RingRadius: 10,
		OrbitTilt:  0.12,
		Items: []ItemSpec{
			{Name: "Bootstrap"}, {Name: "Django"}, {Name: "Node.js"}, {Name: "React"},
			{Name: "Spring"}, {Name: "WordPress"}, {Name: "NPM"},
		},
	},
	{
		Name:       "Platforms",
		Color:      "#fb923c",
		RingRadius: 13,
		OrbitTilt:  -0.05,
		Items: []ItemSpec{
			{Name: "Azure"}, {Name: "Google Cloud"}, {Name: "GitHub Pages"},
			{Name: "Linux"}, {Name: "Git"}, {Name: "Arduino"},
		},
	},
}

// DefaultConfig returns the built-in orbit table.
func DefaultConfig() *Config {
	cfg, err := New(defaultSpecs)
	if err != nil {
		// The built-in table is covered by tests.
		panic(err)
	}
	return cfg
}
