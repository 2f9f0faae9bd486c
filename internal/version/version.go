package version

// Version is overridden at build time with
// -ldflags "-X github.com/juanibiapina/ptree/internal/version.Version=..."
var Version = "dev"
