package browse

import "time"

// DefaultTTL is how long a cached listing or document stays live when the
// configuration does not say otherwise.
const DefaultTTL = 30 * time.Minute

// RecursionLevel controls how deep a remote listing descends below its scope path.
type RecursionLevel string

// RecursionOneLevel lists the scope path itself plus its immediate children.
const RecursionOneLevel RecursionLevel = "OneLevel"

// Repository identifies a remote repository resolved from its project and name.
type Repository struct {
	ID      string
	Project string
	Name    string
}

// Item is one entry of a remote listing.
type Item struct {
	Path     string `json:"path"` // slash-rooted, e.g. "/folder2/file1.json"
	IsFolder bool   `json:"isFolder"`
}

// Document is a parsed structured file: a JSON object, or a YAML mapping
// normalised to the same value types encoding/json produces.
type Document map[string]any

// Target names the project and repository a Service browses.
type Target struct {
	Project    string `yaml:"project"`
	Repository string `yaml:"repository"`
}

// Config is the immutable configuration of a Service.
type Config struct {
	Target Target
	TTL    time.Duration // zero means DefaultTTL
}
