package cache

// Names are the cache names of one deployment version.
type Names struct {
	Static  string
	Runtime string
	Images  string
}

func NamesFor(version string) Names {
	return Names{
		Static:  "static-" + version,
		Runtime: "runtime-" + version,
		Images:  "images-" + version,
	}
}

// AllowList is what Activate keeps.
func (n Names) AllowList() []string {
	return []string{n.Static, n.Runtime, n.Images}
}
