package version

// Build metadata. Release builds overwrite these with -ldflags "-X ...".
var (
	Version      = "0.1.0"           // Version of everest-mod-cli
	Toolname     = "everest-mod-cli" // Name of the tool
	Organization = "everest-mods"    // Organization that built the tool
	BuildDate    = "unknown"         // Date when the tool was built
	CommitSHA    = "unknown"         // Commit SHA of the tool
)
