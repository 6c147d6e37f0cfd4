package cgraph_go

// / The version number of the current cgraph release.
const kCgraphVersion = "0.4.0"

func Version() string { return kCgraphVersion }
