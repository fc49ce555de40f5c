package bitserializer

// Path is the container adapter for filesystem paths (§4.5). It serializes
// as a plain string through the scope's String operation, with no
// transcoding: Go's path/filepath packages are always UTF-8 natively (unlike
// C++'s native wide path strings on Windows).
type Path string

// String returns p as a plain string.
func (p Path) String() string { return string(p) }
